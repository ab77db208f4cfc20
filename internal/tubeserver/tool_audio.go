package tubeserver

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_tube/internal/engine/speech"
)

// TranscribeAudioInput is the input for transcribe_audio.
type TranscribeAudioInput struct {
	Path string `json:"path" jsonschema:"Local path to an audio file (mp3, wav, flac)"`
}

// TranscribeAudioOutput is the structured output for transcribe_audio.
type TranscribeAudioOutput struct {
	Path         string           `json:"path"`
	ArtifactPath string           `json:"artifact_path"`
	Duration     float64          `json:"duration_seconds"`
	Segments     []speech.Segment `json:"segments"`
	Transcript   string           `json:"transcript"`
}

func registerTranscribeAudio(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcribe_audio",
		Description: "Transcribe a local audio file via Google Cloud Speech batch recognition. Used when a video has no captions. Small files are submitted inline; large files go through object storage. The result JSON is written next to the audio file.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input TranscribeAudioInput) (*mcp.CallToolResult, TranscribeAudioOutput, error) {
		if input.Path == "" {
			return nil, TranscribeAudioOutput{}, errors.New("path is required")
		}
		if _, err := os.Stat(input.Path); err != nil {
			return nil, TranscribeAudioOutput{}, fmt.Errorf("audio file: %w", err)
		}

		client, err := speech.New(ctx)
		if err != nil {
			return nil, TranscribeAudioOutput{}, err
		}

		result, err := client.Transcribe(ctx, input.Path)
		if err != nil {
			return nil, TranscribeAudioOutput{}, err
		}

		artifactPath, err := speech.WriteResult(result)
		if err != nil {
			return nil, TranscribeAudioOutput{}, err
		}

		return nil, TranscribeAudioOutput{
			Path:         result.AudioPath,
			ArtifactPath: artifactPath,
			Duration:     result.TotalDuration,
			Segments:     result.Segments,
			Transcript:   result.Transcript,
		}, nil
	})
}
