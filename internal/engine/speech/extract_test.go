package speech

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationValueString(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`"9.250s"`, 9.25},
		{`"3.500s"`, 3.5},
		{`"7.0s"`, 7.0},
		{`"0s"`, 0},
		{`"120s"`, 120},
	}
	for _, tt := range tests {
		var d durationValue
		require.NoError(t, json.Unmarshal([]byte(tt.in), &d), tt.in)
		assert.Equal(t, tt.want, d.Seconds, tt.in)
	}
}

func TestDurationValueStruct(t *testing.T) {
	var d durationValue
	require.NoError(t, json.Unmarshal([]byte(`{"seconds":9,"nanos":250000000}`), &d))
	assert.Equal(t, 9.25, d.Seconds)

	require.NoError(t, json.Unmarshal([]byte(`{"seconds":3}`), &d))
	assert.Equal(t, 3.0, d.Seconds)
}

func TestDurationValueInvalid(t *testing.T) {
	var d durationValue
	assert.Error(t, json.Unmarshal([]byte(`"not-a-duration"`), &d))
}

func TestExtractSegmentsGaplessTimeline(t *testing.T) {
	raw := []byte(`{"results":[
		{"alternatives":[{"transcript":" first part ","confidence":0.91}],"resultEndTime":"3.500s"},
		{"alternatives":[{"transcript":"second part","confidence":0.88}],"resultEndTime":"7.0s"}
	]}`)

	segs, err := extractSegments(raw)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.Equal(t, Segment{Text: "first part", Start: 0, End: 3.5, Confidence: 0.91}, segs[0])
	assert.Equal(t, Segment{Text: "second part", Start: 3.5, End: 7.0, Confidence: 0.88}, segs[1])
}

func TestExtractSegmentsShapes(t *testing.T) {
	inner := `{"results":[{"alternatives":[{"transcript":"hello","confidence":0.9}],"resultEndOffset":{"seconds":2,"nanos":500000000}}]}`
	tests := []struct {
		name string
		raw  string
	}{
		{"flat", inner},
		{"keyed transcript", `{"results":{"gs://bucket/a.mp3":{"transcript":` + inner + `}}}`},
		{"keyed inline", `{"results":{"gs://bucket/a.mp3":{"inlineResult":{"transcript":` + inner + `}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := extractSegments([]byte(tt.raw))
			require.NoError(t, err)
			require.Len(t, segs, 1)
			assert.Equal(t, "hello", segs[0].Text)
			assert.Equal(t, 2.5, segs[0].End)
		})
	}
}

func TestExtractSegmentsSkipsEmpty(t *testing.T) {
	raw := []byte(`{"results":[
		{"alternatives":[{"transcript":"  ","confidence":0.5}],"resultEndTime":"1.0s"},
		{"alternatives":[],"resultEndTime":"2.0s"},
		{"alternatives":[{"transcript":"kept","confidence":0.7}],"resultEndTime":"3.0s"}
	]}`)

	segs, err := extractSegments(raw)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	// Skipped results contribute nothing to the timeline.
	assert.Equal(t, 0.0, segs[0].Start)
	assert.Equal(t, 3.0, segs[0].End)
}

func TestExtractSegmentsUnknownShape(t *testing.T) {
	for _, raw := range []string{
		`{"unexpected":true}`,
		`{"results":[]}`,
		`not json`,
		`{"results":{"gs://b/a.mp3":{}}}`,
	} {
		_, err := extractSegments([]byte(raw))
		assert.Error(t, err, raw)
	}
}

func TestUseStorageUpload(t *testing.T) {
	assert.False(t, useStorageUpload(0))
	assert.False(t, useStorageUpload(inlineLimit))
	assert.True(t, useStorageUpload(inlineLimit+1))
}

func TestSanitizeOpName(t *testing.T) {
	assert.Equal(t, "projects_123_operations_abc-DEF_9", sanitizeOpName("projects/123/operations/abc-DEF_9"))
}
