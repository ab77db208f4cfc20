package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_tube/internal/engine"
)

func initTestRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	engine.Init(engine.Config{OutputRoot: root})
	return root
}

func TestWriteTranscript(t *testing.T) {
	root := initTestRoot(t)

	markdown := []byte("# Title\n\nSome **formatted** transcript text.\n")
	path, err := WriteTranscript("dQw4w9WgXcQ", markdown)
	if err != nil {
		t.Fatalf("WriteTranscript: %v", err)
	}

	want := filepath.Join(root, "dQw4w9WgXcQ", "transcript.md")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	// Written bytes must match the formatter output exactly.
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, markdown) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteTranscriptOverwrites(t *testing.T) {
	initTestRoot(t)

	if _, err := WriteTranscript("dQw4w9WgXcQ", []byte("old")); err != nil {
		t.Fatal(err)
	}
	path, err := WriteTranscript("dQw4w9WgXcQ", []byte("new"))
	if err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("got %q, want overwrite", got)
	}
}

func TestWriteMetadata(t *testing.T) {
	initTestRoot(t)

	path, err := WriteMetadata("dQw4w9WgXcQ", Metadata{
		VideoID:   "dQw4w9WgXcQ",
		SourceURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Title:     "Test Video",
		ByteSize:  42,
	})
	if err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		t.Fatalf("metadata not valid JSON: %v", err)
	}
	if md.Title != "Test Video" || md.ByteSize != 42 {
		t.Errorf("round trip: %+v", md)
	}
	if md.DownloadedAt == "" {
		t.Error("DownloadedAt not defaulted")
	}
}

func TestWriteDebugDump(t *testing.T) {
	root := initTestRoot(t)

	path, err := WriteDebugDump("speech-op123", []byte(`{"weird":"shape"}`))
	if err != nil {
		t.Fatalf("WriteDebugDump: %v", err)
	}
	if !strings.HasPrefix(path, filepath.Join(root, "_debug")) {
		t.Errorf("dump outside _debug dir: %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("dump not written: %v", err)
	}
}
