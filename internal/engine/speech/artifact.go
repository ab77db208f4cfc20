package speech

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

// WriteResult persists the transcription artifact next to the audio file:
// {audioPathWithoutExtension}-transcript.json. Overwrites any existing file.
func WriteResult(res *Result) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}

	base := strings.TrimSuffix(res.AudioPath, filepath.Ext(res.AudioPath))
	path := base + "-transcript.json"

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript artifact: %w", err)
	}
	engine.IncrArtifactWritten()
	return path, nil
}
