package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	CaptionRequests  atomic.Int64
	CaptionFallbacks atomic.Int64
	LLMCalls         atomic.Int64
	LLMErrors        atomic.Int64
	SpeechSubmits    atomic.Int64
	SpeechPolls      atomic.Int64
	StorageUploads   atomic.Int64
	ArtifactsWritten atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"caption_requests":  metrics.CaptionRequests.Load(),
		"caption_fallbacks": metrics.CaptionFallbacks.Load(),
		"llm_calls":         metrics.LLMCalls.Load(),
		"llm_errors":        metrics.LLMErrors.Load(),
		"speech_submits":    metrics.SpeechSubmits.Load(),
		"speech_polls":      metrics.SpeechPolls.Load(),
		"storage_uploads":   metrics.StorageUploads.Load(),
		"artifacts_written": metrics.ArtifactsWritten.Load(),
		"cache_hits":        hits,
		"cache_misses":      misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"caption_requests", "caption_fallbacks",
		"llm_calls", "llm_errors",
		"speech_submits", "speech_polls", "storage_uploads",
		"artifacts_written",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sub-packages.
func IncrCaptionRequest()  { metrics.CaptionRequests.Add(1) }
func IncrCaptionFallback() { metrics.CaptionFallbacks.Add(1) }
func IncrLLMCall()         { metrics.LLMCalls.Add(1) }
func IncrLLMError()        { metrics.LLMErrors.Add(1) }
func IncrSpeechSubmit()    { metrics.SpeechSubmits.Add(1) }
func IncrSpeechPoll()      { metrics.SpeechPolls.Add(1) }
func IncrStorageUpload()   { metrics.StorageUploads.Add(1) }
func IncrArtifactWritten() { metrics.ArtifactsWritten.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
