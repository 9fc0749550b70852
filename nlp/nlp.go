package nlp

import (
	"strings"
	"unicode"
)

// Analysis holds the extracted features for a single piece of text.
type Analysis struct {
	// SentimentScore is in [-1, 1]; positive values indicate positive tone.
	SentimentScore float64
	// Tokens are the alphabetic tokens of the text, in order of appearance.
	Tokens []string
}

// Analyzer extracts sentiment and tokens from raw post text.
type Analyzer interface {
	Analyze(text string) Analysis
}

// LexiconAnalyzer scores sentiment from a fixed valence lexicon. It is the
// default Analyzer; deployments with a real NLP backend can provide their own.
type LexiconAnalyzer struct {
	lexicon map[string]float64
}

// NewLexiconAnalyzer creates an analyzer backed by the built-in lexicon.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{lexicon: defaultLexicon}
}

// Analyze tokenizes text into alphabetic tokens and computes a normalized
// sentiment score from the net valence of lexicon words.
func (a *LexiconAnalyzer) Analyze(text string) Analysis {
	tokens := Tokenize(text)

	var net float64
	var hits int
	for _, tok := range tokens {
		if v, ok := a.lexicon[strings.ToLower(tok)]; ok {
			net += v
			hits++
		}
	}

	var score float64
	if hits > 0 {
		score = net / float64(hits)
	}
	return Analysis{SentimentScore: clamp(score, -1, 1), Tokens: tokens}
}

// Tokenize splits text into maximal runs of letters.
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// defaultLexicon maps lowercase words to valence in [-1, 1].
var defaultLexicon = map[string]float64{
	"amazing": 0.9,
	"awesome": 0.9,
	"excellent": 0.9,
	"fantastic": 0.9,
	"love": 0.8,
	"loved": 0.8,
	"brilliant": 0.8,
	"wonderful": 0.8,
	"great": 0.7,
	"best": 0.7,
	"beautiful": 0.7,
	"excited": 0.6,
	"happy": 0.6,
	"glad": 0.5,
	"good": 0.5,
	"nice": 0.5,
	"thanks": 0.4,
	"thank": 0.4,
	"cool": 0.4,
	"fun": 0.4,
	"interesting": 0.3,
	"fine": 0.2,
	"okay": 0.1,
	"meh": -0.2,
	"boring": -0.4,
	"bad": -0.5,
	"annoying": -0.5,
	"sad": -0.5,
	"broken": -0.5,
	"wrong": -0.5,
	"poor": -0.6,
	"angry": -0.6,
	"ugly": -0.6,
	"hate": -0.8,
	"hated": -0.8,
	"awful": -0.8,
	"terrible": -0.9,
	"horrible": -0.9,
	"worst": -0.9,
	"disgusting": -0.9,
}
