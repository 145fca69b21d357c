package checkpoint

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDocumentKey(t *testing.T) {
	t.Run("stable for same path", func(t *testing.T) {
		a := DocumentKey("/tmp/scan.pdf")
		b := DocumentKey("/tmp/scan.pdf")
		if a != b {
			t.Errorf("expected stable key, got %s and %s", a, b)
		}
	})

	t.Run("fixed width", func(t *testing.T) {
		key := DocumentKey("/tmp/scan.pdf")
		if len(key) != 64 {
			t.Errorf("expected 64 hex chars, got %d", len(key))
		}
	})

	t.Run("distinct for distinct paths", func(t *testing.T) {
		if DocumentKey("/tmp/a.pdf") == DocumentKey("/tmp/b.pdf") {
			t.Error("expected distinct keys for distinct paths")
		}
	})

	t.Run("relative and absolute paths agree", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		rel := DocumentKey("scan.pdf")
		abs := DocumentKey(filepath.Join(wd, "scan.pdf"))
		if rel != abs {
			t.Error("expected relative path to canonicalize to absolute")
		}
	})
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	key := DocumentKey("/tmp/book.pdf")

	store.Save(key, []int{0, 1, 4})

	pages := store.Load(key)
	if len(pages) != 3 || pages[0] != 0 || pages[1] != 1 || pages[2] != 4 {
		t.Errorf("unexpected pages: %v", pages)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if pages := store.Load(DocumentKey("/nope.pdf")); len(pages) != 0 {
		t.Errorf("expected empty set for missing checkpoint, got %v", pages)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	key := DocumentKey("/tmp/corrupt.pdf")

	if err := os.WriteFile(store.Path(key), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if pages := store.Load(key); len(pages) != 0 {
		t.Errorf("expected corrupt checkpoint to read as empty, got %v", pages)
	}
}

func TestFileStore_Delete(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	key := DocumentKey("/tmp/done.pdf")

	store.Save(key, []int{0})
	store.Delete(key)

	if _, err := os.Stat(store.Path(key)); !os.IsNotExist(err) {
		t.Error("expected checkpoint file to be removed")
	}

	// Deleting again is harmless
	store.Delete(key)
}

func TestPageSet(t *testing.T) {
	s := NewPageSet([]int{2, 0, 2})

	if s.Len() != 2 {
		t.Errorf("expected seed duplicates collapsed, got len %d", s.Len())
	}

	s.Add(1)
	s.Add(1)

	if s.Len() != 3 {
		t.Errorf("expected 3 pages, got %d", s.Len())
	}
	if !s.Contains(0) || !s.Contains(1) || !s.Contains(2) {
		t.Error("expected pages 0,1,2 present")
	}
	if s.Contains(5) {
		t.Error("did not expect page 5")
	}

	pages := s.Pages()
	if len(pages) != 3 {
		t.Errorf("unexpected pages: %v", pages)
	}
}
