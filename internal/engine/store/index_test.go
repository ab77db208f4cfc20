package store

import (
	"context"
	"path/filepath"
	"testing"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := newIndex(filepath.Join(t.TempDir(), "transcripts.db"))
	if err != nil {
		t.Fatalf("newIndex: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestIndexPutList(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	entries := []Entry{
		{VideoID: "aaaaaaaaaaa", Title: "First", URL: "u1", Path: "p1", CreatedAt: "2026-08-01T00:00:00Z"},
		{VideoID: "bbbbbbbbbbb", Title: "Second", URL: "u2", Path: "p2", CreatedAt: "2026-08-02T00:00:00Z"},
	}
	for _, e := range entries {
		if err := ix.Put(ctx, e, "text for "+e.Title); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	got, err := ix.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	// Newest first.
	if got[0].VideoID != "bbbbbbbbbbb" {
		t.Errorf("got[0] = %q, want newest entry", got[0].VideoID)
	}
}

func TestIndexPutReplaces(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	e := Entry{VideoID: "aaaaaaaaaaa", Title: "Old", URL: "u", Path: "p"}
	if err := ix.Put(ctx, e, "old text"); err != nil {
		t.Fatal(err)
	}
	e.Title = "New"
	if err := ix.Put(ctx, e, "new text"); err != nil {
		t.Fatal(err)
	}

	got, err := ix.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1 after replace", len(got))
	}
	if got[0].Title != "New" {
		t.Errorf("Title = %q, want New", got[0].Title)
	}
}

func TestIndexSearch(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	if err := ix.Put(ctx, Entry{VideoID: "aaaaaaaaaaa", Title: "Go Concurrency Talk", URL: "u1", Path: "p1"}, "channels and goroutines"); err != nil {
		t.Fatal(err)
	}
	if err := ix.Put(ctx, Entry{VideoID: "bbbbbbbbbbb", Title: "Cooking Pasta", URL: "u2", Path: "p2"}, "boil water add salt"); err != nil {
		t.Fatal(err)
	}

	t.Run("title match case-insensitive", func(t *testing.T) {
		got, err := ix.Search(ctx, "concurrency", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].VideoID != "aaaaaaaaaaa" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("transcript text match", func(t *testing.T) {
		got, err := ix.Search(ctx, "goroutines", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].VideoID != "aaaaaaaaaaa" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("no match", func(t *testing.T) {
		got, err := ix.Search(ctx, "quantum", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("got %+v, want none", got)
		}
	})
}
