package store_test

import (
	"context"
	"errors"
	"testing"

	"narrate/internal/store"
)

func TestBlobVersionMatchesGit(t *testing.T) {
	// `printf 'hello\n' | git hash-object --stdin`
	if got := store.BlobVersion([]byte("hello\n")); got != "ce013625030ba8dba906f756967f9e9ca394464a" {
		t.Fatalf("unexpected blob version %s", got)
	}
	// the empty blob
	if got := store.BlobVersion(nil); got != "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391" {
		t.Fatalf("unexpected empty blob version %s", got)
	}
}

func TestCleanPath(t *testing.T) {
	good := map[string]string{
		"audio/manifest.json":     "audio/manifest.json",
		"/modules/module-01.html": "modules/module-01.html",
		"audio//module-01/":       "audio/module-01",
	}
	for in, want := range good {
		got, err := store.CleanPath(in)
		if err != nil || got != want {
			t.Fatalf("CleanPath(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	for _, in := range []string{"", "..", "../etc/passwd", "  "} {
		if _, err := store.CleanPath(in); !errors.Is(err, store.ErrInvalidPath) {
			t.Fatalf("CleanPath(%q) expected ErrInvalidPath, got %v", in, err)
		}
	}
}

func TestMemoryCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	if _, err := mem.Read(ctx, "a.txt"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first, err := mem.Write(ctx, store.WriteRequest{Path: "a.txt", Content: []byte("one")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := mem.Write(ctx, store.WriteRequest{Path: "a.txt", Content: []byte("two"), IfMatch: first.Version})
	if err != nil {
		t.Fatalf("cas write: %v", err)
	}

	_, err = mem.Write(ctx, store.WriteRequest{Path: "a.txt", Content: []byte("stale"), IfMatch: first.Version})
	var conflict *store.ConflictError
	if !errors.As(err, &conflict) || !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if conflict.Current != second.Version {
		t.Fatalf("conflict reports current %q, want %q", conflict.Current, second.Version)
	}

	obj, err := mem.Read(ctx, "a.txt")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(obj.Content) != "two" {
		t.Fatalf("stale write must not apply, content %q", obj.Content)
	}
	if mem.WritesTo("a.txt") != 2 {
		t.Fatalf("expected 2 writes, got %d", mem.WritesTo("a.txt"))
	}
}

func TestMemoryIfMatchOnMissingObjectConflicts(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.Write(context.Background(), store.WriteRequest{Path: "x", Content: []byte("y"), IfMatch: "deadbeef"})
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("expected conflict for missing object, got %v", err)
	}
}

func TestMemoryListIsNonRecursive(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("audio/module-01/slide-01.mp3", []byte("a"))
	mem.Put("audio/module-01/slide-02.mp3", []byte("b"))
	mem.Put("audio/module-01/old/slide-03.mp3", []byte("c"))
	mem.Put("audio/manifest.json", []byte("{}"))

	infos, err := mem.List(context.Background(), "audio/module-01")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %+v", infos)
	}
	if infos[0].Path != "audio/module-01/slide-01.mp3" || infos[1].Path != "audio/module-01/slide-02.mp3" {
		t.Fatalf("unexpected listing %+v", infos)
	}
}
