package tubeserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine/transcript"
	"github.com/anatolykoptev/go_tube/internal/engine/youtube"
)

// FetchCaptionsInput is the input for fetch_captions.
type FetchCaptionsInput struct {
	URL        string `json:"url" jsonschema:"YouTube URL or bare 11-character video ID"`
	Timestamps bool   `json:"timestamps,omitempty" jsonschema:"Prefix each line with its [timestamp] marker (default: plain text)"`
}

// FetchCaptionsOutput is the structured output for fetch_captions.
type FetchCaptionsOutput struct {
	VideoID  string  `json:"video_id"`
	Title    string  `json:"title,omitempty"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration_seconds"`
	Segments int     `json:"segments"`
	Text     string  `json:"text"`
}

func registerFetchCaptions(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_captions",
		Description: "Fetch raw captions for a YouTube video without LLM formatting. Tries en, en-US, en-GB, then the default track. Returns plain or timestamped text.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input FetchCaptionsInput) (*mcp.CallToolResult, FetchCaptionsOutput, error) {
		if input.URL == "" {
			return nil, FetchCaptionsOutput{}, errors.New("url is required")
		}

		videoID, err := youtube.ResolveVideoID(input.URL)
		if err != nil {
			return nil, FetchCaptionsOutput{}, err
		}

		captions, err := youtube.FetchCaptions(ctx, videoID)
		if err != nil {
			return nil, FetchCaptionsOutput{}, err
		}

		segments, err := transcript.Normalize(captions.Segments)
		if err != nil {
			return nil, FetchCaptionsOutput{}, err
		}

		text := transcript.JoinPlain(segments)
		if input.Timestamps {
			text = transcript.JoinTimestamped(segments)
		}

		return nil, FetchCaptionsOutput{
			VideoID:  videoID,
			Title:    captions.Video.Title,
			Language: captions.Language,
			Duration: transcript.TotalDuration(segments),
			Segments: len(segments),
			Text:     text,
		}, nil
	})
}
