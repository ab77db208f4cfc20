package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// YouTube Innertube API — low-level constants, types, and HTTP primitives.
// Caption selection and language fallback live in captions.go.

const (
	ytInnertubeURL   = "https://www.youtube.com/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// innertubeLimiter keeps caption retries polite: the fallback loop can issue
// up to four /player calls per video.
var innertubeLimiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 2)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	VideoDetails *struct {
		VideoID       string `json:"videoId"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		LengthSeconds string `json:"lengthSeconds"`
	} `json:"videoDetails"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// --- Timedtext XML types ---

type ytTimedText struct {
	Lines []ytLine `xml:"text"`
}

type ytLine struct {
	Start float64 `xml:"start,attr"` // seconds from video start
	Dur   float64 `xml:"dur,attr"`   // seconds
	Text  string  `xml:",chardata"`
}

// Metadata is the video information carried in the /player response.
type Metadata struct {
	Title    string
	Channel  string
	Duration int // seconds, 0 when absent
}

// fetchPlayerResponse calls the ANDROID Innertube /player endpoint.
// The ANDROID client returns caption tracks without PoToken requirements
// from non-blocked IP addresses.
func fetchPlayerResponse(ctx context.Context, videoID string) (*innertubePlayerResp, error) {
	if err := innertubeLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytInnertubeURL+"?prettyPrint=false", bytes.NewReader(reqBody))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", ytAndroidUA)
		req.Header.Set("X-Youtube-Client-Name", "3")
		req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &engine.UpstreamError{Service: "innertube", Status: resp.StatusCode, Body: string(snippet)}
	}

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(resp.Body).Decode(&playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return &playerResp, nil
}

// metadataFrom extracts video metadata from a player response.
func metadataFrom(resp *innertubePlayerResp) Metadata {
	if resp.VideoDetails == nil {
		return Metadata{}
	}
	length, _ := strconv.Atoi(resp.VideoDetails.LengthSeconds)
	return Metadata{
		Title:    resp.VideoDetails.Title,
		Channel:  resp.VideoDetails.Author,
		Duration: length,
	}
}

// captionTracksFrom returns the caption track list, or an error describing
// why captions are unavailable.
func captionTracksFrom(resp *innertubePlayerResp) ([]captionTrack, error) {
	if resp.Captions == nil {
		reason := ""
		if resp.PlayabilityStatus != nil {
			reason = resp.PlayabilityStatus.Reason
		}
		if reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", reason)
		}
		return nil, errors.New("no captions in player response")
	}
	tracks := resp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks")
	}
	return tracks, nil
}
