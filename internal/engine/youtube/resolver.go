package youtube

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// videoIDPatterns covers the common YouTube URL forms, in priority order.
// The first pattern whose capture group matches wins.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/watch\?(?:[^#\s]*&)?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`(?:youtube\.com|youtube-nocookie\.com)/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/live/([A-Za-z0-9_-]{11})`),
}

var bareIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ResolveVideoID extracts the canonical 11-character video ID from a URL in
// any of the common forms, or accepts a bare ID as-is. No network access —
// a bare ID is not validated against a real video.
func ResolveVideoID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", engine.ErrInvalidVideoID
	}
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(s); len(m) == 2 {
			return m[1], nil
		}
	}
	if bareIDRe.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", engine.ErrInvalidVideoID, raw)
}

// WatchURL returns the canonical watch page URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
