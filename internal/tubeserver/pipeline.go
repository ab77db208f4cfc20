package tubeserver

import (
	"context"
	"log/slog"

	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/format"
	"github.com/anatolykoptev/go_tube/internal/engine/store"
	"github.com/anatolykoptev/go_tube/internal/engine/transcript"
	"github.com/anatolykoptev/go_tube/internal/engine/youtube"
)

// TranscribeOutput is the structured output for transcribe_video.
type TranscribeOutput struct {
	VideoID  string  `json:"video_id"`
	Title    string  `json:"title,omitempty"`
	Channel  string  `json:"channel,omitempty"`
	Language string  `json:"language,omitempty"`
	Duration float64 `json:"duration_seconds"`
	Segments int     `json:"segments"`
	Markdown string  `json:"markdown"`
	Path     string  `json:"path,omitempty"`
	Cached   bool    `json:"cached,omitempty"`
}

// runPipeline executes the primary path for one resolved video ID:
// captions → normalize → format → persist → index. Artifacts are written
// only on full success; a failure anywhere leaves nothing behind.
func runPipeline(ctx context.Context, videoID string) (*TranscribeOutput, error) {
	captions, err := youtube.FetchCaptions(ctx, videoID)
	if err != nil {
		return nil, err
	}
	slog.Info("captions fetched",
		slog.String("id", videoID),
		slog.String("lang", captions.Language),
		slog.Int("segments", len(captions.Segments)))

	segments, err := transcript.Normalize(captions.Segments)
	if err != nil {
		return nil, err
	}
	doc := transcript.BuildDocument(videoID, segments, true)

	markdown, err := format.Markdown(ctx, doc)
	if err != nil {
		return nil, err
	}

	path, err := store.WriteTranscript(videoID, []byte(markdown))
	if err != nil {
		return nil, err
	}
	if _, err := store.WriteMetadata(videoID, store.Metadata{
		VideoID:   videoID,
		SourceURL: doc.SourceURL,
		Title:     captions.Video.Title,
		Channel:   captions.Video.Channel,
		Language:  captions.Language,
		ByteSize:  int64(len(markdown)),
	}); err != nil {
		slog.Warn("metadata write failed", slog.String("id", videoID), slog.Any("error", err))
	}

	indexEntry(ctx, store.Entry{
		VideoID:  videoID,
		Title:    captions.Video.Title,
		URL:      doc.SourceURL,
		Language: captions.Language,
		Duration: doc.TotalDuration,
		Segments: doc.SegmentCount,
		Path:     path,
	}, markdown)

	return &TranscribeOutput{
		VideoID:  videoID,
		Title:    captions.Video.Title,
		Channel:  captions.Video.Channel,
		Language: captions.Language,
		Duration: doc.TotalDuration,
		Segments: doc.SegmentCount,
		Markdown: markdown,
		Path:     path,
	}, nil
}

// indexEntry records a finished transcript in the local index and, when
// configured, the Postgres mirror. Index failures never fail the pipeline.
func indexEntry(ctx context.Context, e store.Entry, text string) {
	ix, err := store.OpenIndex()
	if err != nil {
		slog.Warn("index unavailable", slog.Any("error", err))
	} else if err := ix.Put(ctx, e, text); err != nil {
		slog.Warn("index put failed", slog.String("id", e.VideoID), slog.Any("error", err))
	}

	if pg := store.PG(); pg != nil {
		if err := pg.Put(ctx, e, text); err != nil {
			slog.Warn("pg index put failed", slog.String("id", e.VideoID), slog.Any("error", err))
		}
	}
}

// cacheKeyFor builds the transcript cache key for a video.
func cacheKeyFor(videoID string) string {
	return engine.CacheKey("transcribe", videoID, engine.Cfg.GeminiModel)
}
