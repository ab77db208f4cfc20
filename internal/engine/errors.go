package engine

import (
	"errors"
	"fmt"
	"time"
)

// Pipeline error taxonomy. Errors raised inside the caption language-fallback
// loop are contained there and converted into "try next candidate"; everything
// else propagates to the tool handler unchanged.

var (
	// ErrInvalidVideoID reports input that is neither a known YouTube URL form
	// nor a bare 11-character video ID.
	ErrInvalidVideoID = errors.New("invalid YouTube URL or video ID")

	// ErrEmptyCompletion reports a model response with no text-bearing candidate.
	ErrEmptyCompletion = errors.New("model returned no text completion")

	// ErrDegenerateCompletion reports model output under the minimum usable length.
	ErrDegenerateCompletion = errors.New("model output too short to be a transcript")

	// ErrContentTooLarge reports input that exceeds the model's context window.
	// Remediation differs from a generic upstream failure: shorten the input.
	ErrContentTooLarge = errors.New("transcript exceeds model input capacity; try a shorter video")
)

// NoCaptionsError is returned after every language candidate has been exhausted.
// LastErr is the underlying error from the final candidate.
type NoCaptionsError struct {
	VideoID string
	LastErr error
}

func (e *NoCaptionsError) Error() string {
	return fmt.Sprintf("no captions available for %s in any language: %v", e.VideoID, e.LastErr)
}

func (e *NoCaptionsError) Unwrap() error { return e.LastErr }

// MalformedSegmentError reports a structurally invalid caption segment.
// Fatal: the run aborts rather than skipping the segment.
type MalformedSegmentError struct {
	Index int
}

func (e *MalformedSegmentError) Error() string {
	return fmt.Sprintf("caption segment %d has invalid offset or duration", e.Index)
}

// UpstreamError is a non-2xx response from a network dependency.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.Status, e.Body)
}

// UnparseableResponseError is returned when a batch result matches none of the
// known response shapes. The raw payload is persisted at DumpPath first.
type UnparseableResponseError struct {
	Service  string
	DumpPath string
}

func (e *UnparseableResponseError) Error() string {
	return fmt.Sprintf("%s: unrecognized response shape (raw payload saved to %s)", e.Service, e.DumpPath)
}

// OperationTimeoutError reports a long-running operation that did not complete
// within the configured deadline.
type OperationTimeoutError struct {
	Name    string
	Elapsed time.Duration
}

func (e *OperationTimeoutError) Error() string {
	return fmt.Sprintf("operation %s did not complete after %s", e.Name, e.Elapsed.Round(time.Second))
}
