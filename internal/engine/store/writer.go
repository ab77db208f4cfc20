// Package store persists pipeline artifacts: the markdown transcript and its
// metadata under a per-video directory, debug dumps of unparseable upstream
// payloads, and the local knowledge-base index.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// Metadata describes one written transcript.
type Metadata struct {
	VideoID      string `json:"video_id"`
	SourceURL    string `json:"source_url"`
	Title        string `json:"title,omitempty"`
	Channel      string `json:"channel,omitempty"`
	Language     string `json:"language,omitempty"`
	DownloadedAt string `json:"downloaded_at"`
	ByteSize     int64  `json:"byte_size"`
}

func outputRoot() string {
	if engine.Cfg.OutputRoot != "" {
		return engine.Cfg.OutputRoot
	}
	return "."
}

// videoDir ensures and returns {root}/{videoID}.
func videoDir(videoID string) (string, error) {
	dir := filepath.Join(outputRoot(), videoID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// WriteTranscript writes the markdown verbatim to {root}/{videoID}/transcript.md,
// overwriting any existing file. No atomic-write guarantee.
func WriteTranscript(videoID string, markdown []byte) (string, error) {
	dir, err := videoDir(videoID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "transcript.md")
	if err := os.WriteFile(path, markdown, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	engine.IncrArtifactWritten()
	return path, nil
}

// WriteMetadata writes metadata.json next to the transcript. DownloadedAt is
// filled with the current UTC time when empty.
func WriteMetadata(videoID string, md Metadata) (string, error) {
	dir, err := videoDir(videoID)
	if err != nil {
		return "", err
	}
	if md.DownloadedAt == "" {
		md.DownloadedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	return path, nil
}

// WriteDebugDump persists a raw upstream payload for postmortem under
// {root}/_debug/ and returns the path.
func WriteDebugDump(name string, payload []byte) (string, error) {
	dir := filepath.Join(outputRoot(), "_debug")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create debug dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%d.json", name, time.Now().Unix()))
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("write debug dump: %w", err)
	}
	return path, nil
}
