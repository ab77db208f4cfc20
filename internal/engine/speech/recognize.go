// Package speech is the alternate transcription path for videos without
// captions: it submits audio to the Google Cloud Speech batch recognition
// service (inline, or by reference after a storage upload) and polls the
// long-running operation to completion.
package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/store"
)

const speechBaseURL = "https://speech.googleapis.com/v1"

// inlineLimit is the hard payload ceiling of the inline recognition endpoint.
// Files over this size must go through storage first — the service rejects
// oversized inline submissions outright, so the client branches before
// submitting, not after a rejection.
const inlineLimit = 10 << 20 // 10 MiB

// Result is the outcome of one batch transcription.
type Result struct {
	AudioPath     string    `json:"audio_path"`
	TotalDuration float64   `json:"total_duration_seconds"`
	Segments      []Segment `json:"segments"`
	Transcript    string    `json:"transcript"`
	TranscribedAt string    `json:"transcribed_at"`
}

// Client talks to the speech and storage APIs with OAuth-authorized HTTP.
type Client struct {
	hc *http.Client
}

// New builds a client, running the interactive OAuth flow if no cached
// token exists.
func New(ctx context.Context) (*Client, error) {
	ts, err := tokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return &Client{hc: oauth2.NewClient(ctx, ts)}, nil
}

// useStorageUpload reports whether a file of the given size must be uploaded
// to object storage instead of being submitted inline.
func useStorageUpload(size int64) bool {
	return size > inlineLimit
}

// Transcribe runs the full batch path for a local audio file: submit
// (inline or by storage reference), poll to completion, extract segments.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	audio := map[string]string{}
	if useStorageUpload(int64(len(data))) {
		bucket := transcriptBucket()
		if err := c.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
		object := fmt.Sprintf("%d-%s", time.Now().Unix(), filepath.Base(audioPath))
		uri, err := c.uploadObject(ctx, bucket, object, data)
		if err != nil {
			return nil, err
		}
		slog.Info("speech: audio uploaded", slog.String("uri", uri), slog.Int("bytes", len(data)))
		audio["uri"] = uri
	} else {
		audio["content"] = base64.StdEncoding.EncodeToString(data)
	}

	opName, err := c.submit(ctx, audio)
	if err != nil {
		return nil, err
	}
	slog.Info("speech: operation submitted", slog.String("name", opName))

	raw, err := c.poll(ctx, opName)
	if err != nil {
		return nil, err
	}

	segments, err := extractSegments(raw)
	if err != nil {
		dumpPath, dumpErr := store.WriteDebugDump("speech-"+sanitizeOpName(opName), raw)
		if dumpErr != nil {
			slog.Warn("speech: debug dump failed", slog.Any("error", dumpErr))
		}
		return nil, &engine.UnparseableResponseError{Service: "speech", DumpPath: dumpPath}
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}
	return &Result{
		AudioPath:     audioPath,
		TotalDuration: segments[len(segments)-1].End,
		Segments:      segments,
		Transcript:    strings.Join(texts, " "),
		TranscribedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// submit starts a long-running recognition job and returns its operation name.
func (c *Client) submit(ctx context.Context, audio map[string]string) (string, error) {
	engine.IncrSpeechSubmit()

	body, err := json.Marshal(map[string]any{
		"config": map[string]any{
			"languageCode":               "en-US",
			"enableAutomaticPunctuation": true,
			"model":                      "latest_long",
		},
		"audio": audio,
	})
	if err != nil {
		return "", err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			speechBaseURL+"/speech:longrunningrecognize", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return c.hc.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("speech submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &engine.UpstreamError{Service: "speech", Status: resp.StatusCode, Body: string(snippet)}
	}

	var op struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return "", fmt.Errorf("speech submit: decode: %w", err)
	}
	if op.Name == "" {
		return "", fmt.Errorf("speech submit: no operation name in response")
	}
	return op.Name, nil
}

// operation is the long-running operation status payload. Response and Result
// cover the two field names the status endpoint has used for the completed
// payload.
type operation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Result   json.RawMessage `json:"result,omitempty"`
}

// poll fetches the operation status every PollInterval until done, logging a
// heartbeat every fourth poll. The configured OperationTimeout bounds the
// whole wait — an operation that never completes fails instead of hanging.
func (c *Client) poll(ctx context.Context, opName string) (json.RawMessage, error) {
	interval := engine.Cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := engine.Cfg.OperationTimeout
	if deadline <= 0 {
		deadline = 30 * time.Minute
	}

	pollCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	start := time.Now()

	for attempt := 1; ; attempt++ {
		op, err := c.fetchOperation(pollCtx, opName)
		if err != nil {
			if pollCtx.Err() != nil {
				return nil, &engine.OperationTimeoutError{Name: opName, Elapsed: time.Since(start)}
			}
			return nil, err
		}

		if op.Done {
			if op.Error != nil {
				return nil, &engine.UpstreamError{Service: "speech", Status: op.Error.Code, Body: op.Error.Message}
			}
			if len(op.Response) > 0 {
				return op.Response, nil
			}
			return op.Result, nil
		}

		if attempt%4 == 0 {
			slog.Info("speech: operation still running",
				slog.String("name", opName),
				slog.Duration("elapsed", time.Since(start).Round(time.Second)))
		}

		select {
		case <-time.After(interval):
		case <-pollCtx.Done():
			return nil, &engine.OperationTimeoutError{Name: opName, Elapsed: time.Since(start)}
		}
	}
}

func (c *Client) fetchOperation(ctx context.Context, opName string) (*operation, error) {
	engine.IncrSpeechPoll()

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			speechBaseURL+"/operations/"+opName, nil)
		if err != nil {
			return nil, err
		}
		return c.hc.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("operation status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &engine.UpstreamError{Service: "speech", Status: resp.StatusCode, Body: string(snippet)}
	}

	var op operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("operation status: decode: %w", err)
	}
	return &op, nil
}

// sanitizeOpName makes an operation name safe for use in a filename.
func sanitizeOpName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
