package format

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/transcript"
)

func testDoc() transcript.Document {
	return transcript.Document{
		VideoID:       "dQw4w9WgXcQ",
		SourceURL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		TotalDuration: 212,
		SegmentCount:  40,
		RawText:       "[0:00] never gonna give you up",
	}
}

// withGeminiStub points the formatter at a local server for one test.
func withGeminiStub(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := geminiBaseURL
	geminiBaseURL = srv.URL
	t.Cleanup(func() { geminiBaseURL = old })

	engine.Init(engine.Config{
		GeminiAPIKey: "test-key",
		GeminiModel:  "gemini-2.5-flash",
		HTTPClient:   srv.Client(),
	})
}

func TestMarkdownSuccess(t *testing.T) {
	md := "# Transcript\n\n" + strings.Repeat("A solid paragraph of formatted output. ", 10)
	withGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if !strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":` + jsonString(md) + `}]}}]}`))
	})

	got, err := Markdown(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if got != md {
		t.Errorf("got %q", got)
	}
}

func TestMarkdownDegenerate(t *testing.T) {
	// A 200 response whose text is under the minimum is rejected.
	withGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"# ok"}]}}]}`))
	})

	_, err := Markdown(context.Background(), testDoc())
	if !errors.Is(err, engine.ErrDegenerateCompletion) {
		t.Errorf("expected ErrDegenerateCompletion, got %v", err)
	}
}

func TestMarkdownEmptyCandidates(t *testing.T) {
	withGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := Markdown(context.Background(), testDoc())
	if !errors.Is(err, engine.ErrEmptyCompletion) {
		t.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestMarkdownTooLarge(t *testing.T) {
	withGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"The input token count exceeds the maximum number of tokens allowed","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := Markdown(context.Background(), testDoc())
	if !errors.Is(err, engine.ErrContentTooLarge) {
		t.Errorf("expected ErrContentTooLarge, got %v", err)
	}
}

func TestMarkdownUpstreamError(t *testing.T) {
	withGeminiStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})

	_, err := Markdown(context.Background(), testDoc())
	var upstream *engine.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusForbidden {
		t.Errorf("Status = %d", upstream.Status)
	}
}

func TestIsTooLargeMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"The input token count exceeds the limit", true},
		{"Request exceeds the maximum number of tokens", true},
		{"Prompt is TOO LONG for this model", true},
		{"request payload size exceeds the limit", true},
		{"API key not valid", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isTooLargeMessage(tt.msg); got != tt.want {
			t.Errorf("isTooLargeMessage(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}

// jsonString marshals s as a JSON string literal for handcrafted payloads.
func jsonString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
