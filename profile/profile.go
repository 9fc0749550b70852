package profile

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Sentiment classifies an account's average tone.
type Sentiment string

const (
	SentimentVeryPositive Sentiment = "very positive"
	SentimentPositive     Sentiment = "positive"
	SentimentNeutral      Sentiment = "neutral"
	SentimentNegative     Sentiment = "negative"
	SentimentVeryNegative Sentiment = "very negative"
)

// Punctuation classifies an account's dominant punctuation mark.
type Punctuation string

const (
	PunctuationExclamation Punctuation = "exclamation"
	PunctuationQuestion    Punctuation = "question"
	PunctuationComma       Punctuation = "comma"
	PunctuationPeriod      Punctuation = "period"
)

// punctuationOrder fixes the tie-break order for dominant punctuation.
var punctuationOrder = []struct {
	class Punctuation
	mark  string
}{
	{PunctuationExclamation, "!"},
	{PunctuationQuestion, "?"},
	{PunctuationComma, ","},
	{PunctuationPeriod, "."},
}

const maxTopTokens = 5

// Profile is the learned style descriptor for one account. It is rebuilt
// wholesale on each learning cycle, never merged across cycles.
type Profile struct {
	Sentiment     Sentiment
	TopTokens     []string
	AvgTokenCount float64
	Punctuation   Punctuation
}

// AnalyzedPost pairs a post's raw text with its extracted features.
type AnalyzedPost struct {
	Text           string
	CreatedAt      time.Time
	SentimentScore float64
	Tokens         []string
}

// Aggregate reduces a batch of analyzed posts to a single Profile. An empty
// batch yields the degenerate default: neutral sentiment, no tokens, zero
// average length, period punctuation.
func Aggregate(posts []AnalyzedPost) Profile {
	p := Profile{
		Sentiment:   SentimentNeutral,
		Punctuation: PunctuationPeriod,
	}
	if len(posts) == 0 {
		return p
	}

	var sentimentSum float64
	var tokenTotal int
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	punctCounts := make(map[Punctuation]int)

	for _, post := range posts {
		sentimentSum += post.SentimentScore
		tokenTotal += len(post.Tokens)

		for _, tok := range post.Tokens {
			if _, ok := firstSeen[tok]; !ok {
				firstSeen[tok] = len(firstSeen)
			}
			counts[tok]++
		}

		for _, pc := range punctuationOrder {
			punctCounts[pc.class] += strings.Count(post.Text, pc.mark)
		}
	}

	p.Sentiment = bucketSentiment(sentimentSum / float64(len(posts)))
	p.TopTokens = topTokens(counts, firstSeen)
	p.AvgTokenCount = float64(tokenTotal) / float64(len(posts))
	p.Punctuation = dominantPunctuation(punctCounts)
	return p
}

func bucketSentiment(mean float64) Sentiment {
	switch {
	case mean >= 0.6:
		return SentimentVeryPositive
	case mean >= 0.2:
		return SentimentPositive
	case mean >= -0.2:
		return SentimentNeutral
	case mean >= -0.6:
		return SentimentNegative
	default:
		return SentimentVeryNegative
	}
}

func topTokens(counts map[string]int, firstSeen map[string]int) []string {
	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return firstSeen[tokens[i]] < firstSeen[tokens[j]]
	})
	if len(tokens) > maxTopTokens {
		tokens = tokens[:maxTopTokens]
	}
	return tokens
}

func dominantPunctuation(punctCounts map[Punctuation]int) Punctuation {
	best := punctuationOrder[0].class
	bestCount := punctCounts[best]
	for _, pc := range punctuationOrder[1:] {
		if punctCounts[pc.class] > bestCount {
			best = pc.class
			bestCount = punctCounts[pc.class]
		}
	}
	return best
}

// Store holds the learned profiles keyed by account handle. It is owned by
// the main loop and shared by reference with the learner (writes) and the
// responder (reads).
type Store struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewStore creates an empty profile store.
func NewStore() *Store {
	return &Store{profiles: make(map[string]Profile)}
}

// Get returns the profile for handle, if one has been learned.
func (s *Store) Get(handle string) (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[handle]
	return p, ok
}

// Set overwrites the profile for handle.
func (s *Store) Set(handle string, p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[handle] = p
}

// All returns a copy of every stored profile.
func (s *Store) All() map[string]Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Profile, len(s.profiles))
	for handle, p := range s.profiles {
		out[handle] = p
	}
	return out
}

// ReplaceAll swaps in a full set of profiles, discarding the current ones.
func (s *Store) ReplaceAll(profiles map[string]Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]Profile, len(profiles))
	for handle, p := range profiles {
		s.profiles[handle] = p
	}
}
