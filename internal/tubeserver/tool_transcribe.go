package tubeserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/youtube"
)

// TranscribeInput is the input for transcribe_video.
type TranscribeInput struct {
	URL     string `json:"url" jsonschema:"YouTube URL (watch, youtu.be, embed, shorts) or bare 11-character video ID"`
	Refresh bool   `json:"refresh,omitempty" jsonschema:"Skip the transcript cache and re-run the full pipeline"`
}

func registerTranscribeVideo(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcribe_video",
		Description: "Convert a YouTube video into a structured markdown transcript: fetch captions with language fallback, reformat with an LLM, and save the result under the output directory. Returns the markdown and artifact path.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscribeInput) (*mcp.CallToolResult, TranscribeOutput, error) {
		if input.URL == "" {
			return nil, TranscribeOutput{}, errors.New("url is required")
		}

		videoID, err := youtube.ResolveVideoID(input.URL)
		if err != nil {
			return nil, TranscribeOutput{}, err
		}

		cacheKey := cacheKeyFor(videoID)
		if !input.Refresh {
			if out, ok := engine.CacheLoadJSON[TranscribeOutput](ctx, cacheKey); ok {
				out.Cached = true
				return nil, out, nil
			}
		}

		var out *TranscribeOutput
		err = engine.TrackOperation(ctx, "transcribe:"+videoID, func(ctx context.Context) error {
			out, err = runPipeline(ctx, videoID)
			return err
		})
		if err != nil {
			return nil, TranscribeOutput{}, err
		}

		engine.CacheStoreJSON(ctx, cacheKey, *out)
		return nil, *out, nil
	})
}
