// Package transcript converts raw timed caption segments into a uniform
// seconds-based representation and assembles them into one ordered document
// ready for formatting.
package transcript

import (
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/youtube"
)

// Segment is a caption segment normalized to seconds.
type Segment struct {
	Text      string
	Timestamp float64 // seconds from video start
	Duration  float64 // seconds
}

// Document is the assembled transcript handed to the formatter.
// Built once, consumed once.
type Document struct {
	VideoID       string
	SourceURL     string
	TotalDuration float64
	SegmentCount  int
	RawText       string
}

// Normalize converts raw caption segments (milliseconds) to seconds.
// A segment with a negative offset or duration is structurally invalid and
// aborts the run — it is not skipped.
func Normalize(raw []youtube.CaptionSegment) ([]Segment, error) {
	segments := make([]Segment, 0, len(raw))
	for i, seg := range raw {
		if seg.OffsetMs < 0 || seg.DurationMs < 0 {
			return nil, &engine.MalformedSegmentError{Index: i}
		}
		segments = append(segments, Segment{
			Text:      seg.Text,
			Timestamp: float64(seg.OffsetMs) / 1000,
			Duration:  float64(seg.DurationMs) / 1000,
		})
	}
	return segments, nil
}

// TotalDuration is the final segment's timestamp plus its duration.
// Trusts upstream chronological order — no max over all segments.
func TotalDuration(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	last := segments[len(segments)-1]
	return last.Timestamp + last.Duration
}

// FormatTimestamp renders seconds as M:SS under one hour, H:MM:SS otherwise.
// Trailing units are zero-padded to two digits; the leading unit never is.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// JoinPlain assembles segment texts into one space-joined block, no
// timestamps. Empty segments are skipped.
func JoinPlain(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// JoinTimestamped assembles segments into newline-joined "[M:SS] text" lines.
// The markers survive into the formatted markdown as section anchors.
func JoinTimestamped(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		if seg.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%s] %s", FormatTimestamp(seg.Timestamp), seg.Text)
	}
	return sb.String()
}

// BuildDocument folds normalized segments into a Document. When timestamped
// is true the raw text carries [timestamp] line markers; otherwise it is the
// plain space-joined form.
func BuildDocument(videoID string, segments []Segment, timestamped bool) Document {
	raw := JoinPlain(segments)
	if timestamped {
		raw = JoinTimestamped(segments)
	}
	return Document{
		VideoID:       videoID,
		SourceURL:     youtube.WatchURL(videoID),
		TotalDuration: TotalDuration(segments),
		SegmentCount:  len(segments),
		RawText:       raw,
	}
}
