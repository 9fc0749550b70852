package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel   = "gemini-2.0-flash-lite"
	defaultBaseURL = "https://generativelanguage.googleapis.com"

	defaultMaxOutputTokens = 100
	defaultTemperature     = 0.7
	defaultTopP            = 0.9
)

// Request describes one generation call.
type Request struct {
	// SystemInstruction carries the persona, style hint, and register.
	SystemInstruction string
	// Prompt is the user-facing generation prompt embedding the post text.
	Prompt string
}

// Generator produces reply text using the Gemini API.
type Generator struct {
	apiKey          string
	model           string
	baseURL         string
	maxOutputTokens int
	temperature     float64
	topP            float64
	httpClient      *http.Client
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel sets the Gemini model to use.
func WithModel(model string) Option {
	return func(g *Generator) {
		g.model = model
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(g *Generator) {
		g.baseURL = url
	}
}

// WithMaxOutputTokens bounds the generated reply length.
func WithMaxOutputTokens(n int) Option {
	return func(g *Generator) {
		g.maxOutputTokens = n
	}
}

// NewGenerator creates a new Gemini-based reply generator.
func NewGenerator(apiKey string, opts ...Option) *Generator {
	g := &Generator{
		apiKey:          apiKey,
		model:           defaultModel,
		baseURL:         defaultBaseURL,
		maxOutputTokens: defaultMaxOutputTokens,
		temperature:     defaultTemperature,
		topP:            defaultTopP,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces reply text for the request. An empty candidate is
// treated as a failure.
func (g *Generator) Generate(ctx context.Context, genReq Request) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: genReq.SystemInstruction}},
		},
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: genReq.Prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: g.maxOutputTokens,
			Temperature:     g.temperature,
			TopP:            g.topP,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return extractText(&geminiResp)
}

func extractText(resp *geminiResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no parts in candidate")
	}

	text := strings.TrimSpace(candidate.Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty generated text")
	}
	return text, nil
}

// Gemini API types

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}
