// Package format sends an assembled transcript to the Gemini generateContent
// API and extracts a validated markdown completion.
package format

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/transcript"
)

// geminiBaseURL is a var so tests can point the client at a local server.
var geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

const (
	// maxInputChars caps the transcript sent to the model. Long videos lose
	// trailing content rather than being chunked — a deliberate trade-off.
	maxInputChars      = 200_000
	continuationMarker = "\n\n[transcript truncated]"

	// minOutputChars rejects degenerate completions that a 200 response can
	// still carry (empty markdown, a bare title, an apology).
	minOutputChars = 100
)

// --- generateContent wire types ---

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Markdown formats a transcript document into structured markdown.
// The input is truncated to maxInputChars before prompting; the output is
// validated (non-empty, at least minOutputChars after trimming).
func Markdown(ctx context.Context, doc transcript.Document) (string, error) {
	engine.IncrLLMCall()

	text := engine.TruncateRunes(doc.RawText, maxInputChars, continuationMarker)
	prompt := fmt.Sprintf(formatPrompt,
		doc.SourceURL,
		doc.VideoID,
		transcript.FormatTimestamp(doc.TotalDuration),
		doc.SegmentCount,
		text)

	raw, err := generateContent(ctx, prompt)
	if err != nil {
		engine.IncrLLMError()
		return "", err
	}

	md, err := extractText(raw)
	if err != nil {
		engine.IncrLLMError()
		return "", err
	}
	return md, nil
}

// generateContent submits one prompt with deterministic-leaning sampling and
// returns the decoded response.
func generateContent(ctx context.Context, prompt string) (*geminiResponse, error) {
	temperature := engine.Cfg.GeminiTemperature
	maxTokens := engine.Cfg.GeminiMaxTokens
	if maxTokens <= 0 {
		maxTokens = 65536
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent", geminiBaseURL, engine.Cfg.GeminiModel)
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", engine.Cfg.GeminiAPIKey)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(payload)
		var decoded geminiResponse
		if json.Unmarshal(payload, &decoded) == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		if isTooLargeMessage(msg) {
			return nil, fmt.Errorf("%w: %s", engine.ErrContentTooLarge, engine.Truncate(msg, 200))
		}
		return nil, &engine.UpstreamError{Service: "gemini", Status: resp.StatusCode, Body: engine.Truncate(msg, 300)}
	}

	var decoded geminiResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if decoded.Error != nil {
		if isTooLargeMessage(decoded.Error.Message) {
			return nil, fmt.Errorf("%w: %s", engine.ErrContentTooLarge, engine.Truncate(decoded.Error.Message, 200))
		}
		return nil, &engine.UpstreamError{Service: "gemini", Status: decoded.Error.Code, Body: engine.Truncate(decoded.Error.Message, 300)}
	}
	return &decoded, nil
}

// extractText returns the first text-bearing completion candidate, trimmed
// and validated against the minimum length.
func extractText(resp *geminiResponse) (string, error) {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if md := strings.TrimSpace(part.Text); md != "" {
				if len(md) < minOutputChars {
					return "", fmt.Errorf("%w: got %d chars", engine.ErrDegenerateCompletion, len(md))
				}
				return md, nil
			}
		}
	}
	return "", engine.ErrEmptyCompletion
}

// tooLargePhrases are the known upstream wordings for "input exceeds the
// model's context window". Matching is case-insensitive substring.
var tooLargePhrases = []string{
	"exceeds the maximum number of tokens",
	"input token count",
	"context length",
	"request payload size exceeds",
	"too long",
}

func isTooLargeMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, p := range tooLargePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
