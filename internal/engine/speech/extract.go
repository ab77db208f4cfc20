package speech

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Batch responses arrive in several shapes depending on which recognition
// surface produced them: a flat v1 result list, per-file results keyed by
// storage URI, or the same wrapped in an "inlineResult" envelope. Each known
// shape is probed in order; the first match wins.

// Segment is one recognized span of speech. Start times are derived, not
// transmitted: each segment starts where the previous one ended (0 for the
// first), producing a gapless timeline regardless of real silence gaps.
type Segment struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// durationValue accepts both wire encodings of a duration: a numeric string
// with an "s" suffix ("9.250s") and a structured {seconds, nanos} pair.
type durationValue struct {
	Seconds float64
}

func (d *durationValue) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		return errors.New("empty duration value")
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", s, err)
		}
		d.Seconds = v
		return nil
	}
	var obj struct {
		Seconds int64 `json:"seconds"`
		Nanos   int64 `json:"nanos"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	d.Seconds = float64(obj.Seconds) + float64(obj.Nanos)/1e9
	return nil
}

// --- response shapes ---

type recognitionResult struct {
	Alternatives []struct {
		Transcript string  `json:"transcript"`
		Confidence float64 `json:"confidence"`
	} `json:"alternatives"`
	ResultEndTime   *durationValue `json:"resultEndTime,omitempty"`
	ResultEndOffset *durationValue `json:"resultEndOffset,omitempty"`
}

type flatResponse struct {
	Results []recognitionResult `json:"results"`
}

type keyedResponse struct {
	Results map[string]struct {
		Transcript   *flatResponse `json:"transcript,omitempty"`
		InlineResult *struct {
			Transcript *flatResponse `json:"transcript,omitempty"`
		} `json:"inlineResult,omitempty"`
	} `json:"results"`
}

// extractor probes one response shape. Returns the result list and true on
// a structural match (even if the list is empty), or false when the shape
// does not apply.
type extractor func(raw []byte) ([]recognitionResult, bool)

var extractors = []extractor{
	extractFlat,
	extractKeyedTranscript,
	extractKeyedInline,
}

func extractFlat(raw []byte) ([]recognitionResult, bool) {
	var resp flatResponse
	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Results) == 0 {
		return nil, false
	}
	return resp.Results, true
}

func extractKeyedTranscript(raw []byte) ([]recognitionResult, bool) {
	var resp keyedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	for _, fileResult := range resp.Results {
		if fileResult.Transcript != nil && len(fileResult.Transcript.Results) > 0 {
			return fileResult.Transcript.Results, true
		}
	}
	return nil, false
}

func extractKeyedInline(raw []byte) ([]recognitionResult, bool) {
	var resp keyedResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	for _, fileResult := range resp.Results {
		if fileResult.InlineResult != nil && fileResult.InlineResult.Transcript != nil &&
			len(fileResult.InlineResult.Transcript.Results) > 0 {
			return fileResult.InlineResult.Transcript.Results, true
		}
	}
	return nil, false
}

// extractSegments probes each known response shape in order and reconstructs
// the contiguous segment timeline from per-result end offsets.
func extractSegments(raw []byte) ([]Segment, error) {
	var results []recognitionResult
	matched := false
	for _, ex := range extractors {
		if r, ok := ex(raw); ok {
			results = r
			matched = true
			break
		}
	}
	if !matched {
		return nil, errors.New("no known response shape matched")
	}

	segments := make([]Segment, 0, len(results))
	prevEnd := 0.0
	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		alt := r.Alternatives[0]
		text := strings.TrimSpace(alt.Transcript)
		if text == "" {
			continue
		}

		end := prevEnd
		switch {
		case r.ResultEndTime != nil:
			end = r.ResultEndTime.Seconds
		case r.ResultEndOffset != nil:
			end = r.ResultEndOffset.Seconds
		}

		segments = append(segments, Segment{
			Text:       text,
			Start:      prevEnd,
			End:        end,
			Confidence: alt.Confidence,
		})
		prevEnd = end
	}
	if len(segments) == 0 {
		return nil, errors.New("response contained no transcript segments")
	}
	return segments, nil
}
