// Package enrich holds the optional, best-effort enrichment collaborators:
// one-line rationale generation and archived-snapshot lookup. Nothing in
// this package is ever allowed to fail a candidate.
package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const rationalePrompt = `You are the editor of a curated digest of long-form science, philosophy, society and books writing. For the article below, write a single sentence (under 25 words) telling a thoughtful reader why it matters. No preamble, no quotes, no markdown — just the sentence.

Category: %s
Headline: %s
Teaser: %s`

// RationaleGenerator asks a chat-completions API for a one-line "why it
// matters". Outputs outside the configured length window are discarded.
type RationaleGenerator struct {
	client   *http.Client
	provider string // "openai" or "anthropic"
	model    string
	apiKey   string
	baseURL  string
	minChars int
	maxChars int
}

// NewRationaleGenerator creates a generator.
func NewRationaleGenerator(provider, model, apiKey, baseURL string, minChars, maxChars int) *RationaleGenerator {
	if model == "" {
		switch provider {
		case "anthropic":
			model = "claude-sonnet-4-20250514"
		default:
			model = "gpt-4o-mini"
		}
	}
	if minChars <= 0 {
		minChars = 20
	}
	if maxChars <= minChars {
		maxChars = 160
	}
	return &RationaleGenerator{
		client:   &http.Client{Timeout: 30 * time.Second},
		provider: provider,
		model:    model,
		apiKey:   apiKey,
		baseURL:  baseURL,
		minChars: minChars,
		maxChars: maxChars,
	}
}

// Generate returns a sanitized rationale, or "" when the output falls
// outside the length window after cleanup.
func (g *RationaleGenerator) Generate(ctx context.Context, headline, teaser, category string) (string, error) {
	prompt := fmt.Sprintf(rationalePrompt, category, headline, teaser)

	var raw string
	var err error
	switch g.provider {
	case "anthropic":
		raw, err = g.callAnthropic(ctx, prompt)
	default:
		raw, err = g.callOpenAI(ctx, prompt)
	}
	if err != nil {
		return "", err
	}

	return g.sanitize(raw), nil
}

// sanitize strips generation artifacts and enforces the length window.
func (g *RationaleGenerator) sanitize(raw string) string {
	s := strings.TrimSpace(raw)

	// Drop markdown code fences wholesale.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s[3:], "\n"); idx >= 0 {
			s = s[3+idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	// Keep the first line only; models sometimes append commentary.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}

	s = strings.Trim(s, `"'“”`)
	for _, prefix := range []string{"Why it matters:", "Why this matters:", "Rationale:"} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
		}
	}
	s = strings.Join(strings.Fields(s), " ")

	if len(s) < g.minChars || len(s) > g.maxChars {
		return ""
	}
	return s
}

func (g *RationaleGenerator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	baseURL := g.baseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	payload := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai status %d", resp.StatusCode)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return result.Choices[0].Message.Content, nil
}

func (g *RationaleGenerator) callAnthropic(ctx context.Context, prompt string) (string, error) {
	baseURL := g.baseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}

	payload := map[string]any{
		"model":      g.model,
		"max_tokens": 256,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create anthropic request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call anthropic: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic status %d", resp.StatusCode)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("anthropic: no content returned")
	}
	return result.Content[0].Text, nil
}
