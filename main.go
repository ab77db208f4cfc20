// go_tube — YouTube transcription MCP server.
//
// Exposes five MCP tools: transcribe_video, fetch_captions, transcribe_audio,
// transcript_list, transcript_search.
// Runs as HTTP MCP server or stdio transport.
//
// Primary path pulls YouTube captions and reformats them into structured
// markdown with Gemini. Videos without captions fall back to Google Cloud
// Speech batch recognition over a locally extracted audio file.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_tube/internal/engine"
	"github.com/anatolykoptev/go_tube/internal/engine/store"
	"github.com/anatolykoptev/go_tube/internal/tubeserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	initEngine()

	slog.Info("starting go_tube",
		slog.String("port", mcpPort),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_tube",
		Version: version,
	}, nil)

	tubeserver.RegisterTools(server)
	slog.Info("tools registered", slog.Int("count", 5))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_tube",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initEngine() {
	c := engine.Config{
		GeminiAPIKey:         env.Str("GEMINI_API_KEY", ""),
		GeminiModel:          env.Str("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature:    env.Float("GEMINI_TEMPERATURE", 0.3),
		GeminiMaxTokens:      env.Int("GEMINI_MAX_TOKENS", 65536),
		OAuthClientID:        env.Str("GOOGLE_OAUTH_CLIENT_ID", ""),
		OAuthClientSecret:    env.Str("GOOGLE_OAUTH_CLIENT_SECRET", ""),
		GCPProjectID:         env.Str("GCP_PROJECT_ID", ""),
		OutputRoot:           env.Str("OUTPUT_ROOT", "transcripts"),
		OperationTimeout:     env.Duration("OPERATION_TIMEOUT", 30*time.Minute),
		PollInterval:         env.Duration("POLL_INTERVAL", 5*time.Second),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	engine.Init(c)

	if c.GeminiAPIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, transcribe_video will fail at the formatting step")
	}

	// Postgres mirror of the transcript index (optional)
	if dbURL := env.Str("DATABASE_URL", ""); dbURL != "" {
		pg, err := store.ConnectPG(context.Background(), dbURL)
		if err != nil {
			slog.Warn("pg index init failed", slog.Any("error", err))
		} else {
			store.SetPGIndex(pg)
			slog.Info("pg index initialized")
		}
	}

	cacheTTL := env.Duration("CACHE_TTL", 24*time.Hour)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}
