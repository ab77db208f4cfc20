package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64
	GeminiMaxTokens   int

	OAuthClientID     string
	OAuthClientSecret string
	GCPProjectID      string

	OutputRoot string // root directory for written artifacts; defaults to cwd

	OperationTimeout time.Duration // deadline for batch recognition polling
	PollInterval     time.Duration // wait between operation status checks

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (youtube, format, speech, store).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	cfg = c
	Cfg = &cfg
}
