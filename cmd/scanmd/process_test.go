package main

import (
	"path/filepath"
	"testing"
)

func TestOutputPaths(t *testing.T) {
	t.Run("colliding basenames get distinct files", func(t *testing.T) {
		got := outputPaths("/out", []string{"a/scan.pdf", "b/scan.pdf", "c/other.png"})

		if got["a/scan.pdf"] != filepath.Join("/out", "scan.md") {
			t.Errorf("unexpected path for a/scan.pdf: %s", got["a/scan.pdf"])
		}
		if got["b/scan.pdf"] != filepath.Join("/out", "scan-2.md") {
			t.Errorf("unexpected path for b/scan.pdf: %s", got["b/scan.pdf"])
		}
		if got["c/other.png"] != filepath.Join("/out", "other.md") {
			t.Errorf("unexpected path for c/other.png: %s", got["c/other.png"])
		}

		seen := make(map[string]bool)
		for doc, path := range got {
			if seen[path] {
				t.Errorf("duplicate output path %s for %s", path, doc)
			}
			seen[path] = true
		}
	})

	t.Run("same document listed twice shares one output", func(t *testing.T) {
		got := outputPaths("/out", []string{"a/scan.pdf", "a/scan.pdf"})

		if len(got) != 1 {
			t.Fatalf("expected one entry, got %d", len(got))
		}
		if got["a/scan.pdf"] != filepath.Join("/out", "scan.md") {
			t.Errorf("unexpected path: %s", got["a/scan.pdf"])
		}
	})

	t.Run("suffix chain for three collisions", func(t *testing.T) {
		got := outputPaths("/out", []string{"a/p.pdf", "b/p.pdf", "c/p.pdf"})

		if got["c/p.pdf"] != filepath.Join("/out", "p-3.md") {
			t.Errorf("expected p-3.md for third collision, got %s", got["c/p.pdf"])
		}
	})
}
