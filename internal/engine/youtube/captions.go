package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// CaptionSegment is one unit of raw timed caption data, in the source's
// native milliseconds. Segments arrive in upstream order and are never
// re-sorted.
type CaptionSegment struct {
	Text       string
	OffsetMs   int64
	DurationMs int64
}

// CaptionResult is the outcome of a successful caption fetch.
type CaptionResult struct {
	VideoID  string
	Language string // language code that succeeded; "" = service default track
	Segments []CaptionSegment
	Video    Metadata
}

// languageCandidates is the fixed fallback order. The empty string means
// "whatever track the service serves by default" — single-track videos often
// carry no usable language tag.
var languageCandidates = []string{"en", "en-US", "en-GB", ""}

// minUsableChars rejects caption tracks whose joined text is too short to be
// a real transcript (intro jingle stubs, empty auto-tracks).
const minUsableChars = 50

// FetchCaptions retrieves timed caption segments for a video, trying each
// language candidate in order until one yields usable text. Candidate
// failures are logged and contained; only after every candidate is exhausted
// does the fetch fail, surfacing the last candidate's error.
func FetchCaptions(ctx context.Context, videoID string) (*CaptionResult, error) {
	engine.IncrCaptionRequest()
	return fetchWithFallback(ctx, videoID, fetchCaptionsForLang)
}

// fetchWithFallback runs the candidate loop. The fetch function is a
// parameter so the ordering discipline is testable without network access.
func fetchWithFallback(ctx context.Context, videoID string, fetch func(context.Context, string, string) (*CaptionResult, error)) (*CaptionResult, error) {
	var lastErr error
	for i, lang := range languageCandidates {
		if i > 0 {
			engine.IncrCaptionFallback()
		}
		res, err := fetch(ctx, videoID, lang)
		if err != nil {
			lastErr = err
			slog.Warn("captions: candidate failed",
				slog.String("id", videoID),
				slog.String("lang", displayLang(lang)),
				slog.Any("error", err))
			continue
		}
		return res, nil
	}
	return nil, &engine.NoCaptionsError{VideoID: videoID, LastErr: lastErr}
}

// fetchCaptionsForLang performs one full retrieval attempt for a single
// language candidate: /player → pick track → timedtext XML → segments.
func fetchCaptionsForLang(ctx context.Context, videoID, lang string) (*CaptionResult, error) {
	playerResp, err := fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}
	tracks, err := captionTracksFrom(playerResp)
	if err != nil {
		return nil, err
	}

	track, ok := pickTrack(tracks, lang)
	if !ok {
		return nil, fmt.Errorf("no usable caption track for %s", displayLang(lang))
	}

	segments, err := fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, errors.New("empty caption track")
	}
	if joined := JoinText(segments); len(joined) <= minUsableChars {
		return nil, fmt.Errorf("caption text too short (%d chars)", len(joined))
	}

	return &CaptionResult{
		VideoID:  videoID,
		Language: track.LanguageCode,
		Segments: segments,
		Video:    metadataFrom(playerResp),
	}, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken
// (browser-only). Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack selects a usable caption track for one language candidate.
// Manual tracks win over auto-generated ("asr") ones. An empty candidate
// accepts any usable track — the service default.
func pickTrack(tracks []captionTrack, lang string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	if lang == "" {
		return usable[0], true
	}
	for _, t := range usable {
		if t.LanguageCode == lang && t.Kind != "asr" {
			return t, true
		}
	}
	for _, t := range usable {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	return captionTrack{}, false
}

// fetchTimedText fetches and parses a YouTube timedtext XML caption URL into
// millisecond-timed segments.
func fetchTimedText(ctx context.Context, baseURL string) ([]CaptionSegment, error) {
	if err := innertubeLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &engine.UpstreamError{Service: "timedtext", Status: resp.StatusCode, Body: string(snippet)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

// parseTimedText converts timedtext XML into caption segments.
// The XML carries float seconds; segments carry integer milliseconds.
func parseTimedText(body []byte) ([]CaptionSegment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]CaptionSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		segments = append(segments, CaptionSegment{
			Text:       engine.CollapseSpaces(engine.CleanHTML(line.Text)),
			OffsetMs:   int64(math.Round(line.Start * 1000)),
			DurationMs: int64(math.Round(line.Dur * 1000)),
		})
	}
	return segments, nil
}

// JoinText joins non-empty segment texts with single spaces.
func JoinText(segments []CaptionSegment) string {
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

func displayLang(lang string) string {
	if lang == "" {
		return "default"
	}
	return lang
}
