// Package checkpoint persists the set of already-processed page indices
// for a document so interrupted runs can resume where they left off.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

// Store persists processed-page sets keyed by document.
//
// All operations are best-effort: a missing or corrupt checkpoint reads
// as empty, and write or delete failures are logged by implementations
// rather than propagated. Losing a checkpoint only costs reprocessing
// time - the source pages are still there.
type Store interface {
	// Load returns the processed page indices for a document, or an
	// empty slice if no usable checkpoint exists.
	Load(key string) []int

	// Save persists the full current set, replacing any prior version.
	Save(key string, pages []int)

	// Delete removes the checkpoint. Called only after a run completes
	// with zero failed pages.
	Delete(key string)
}

// DocumentKey derives a stable, collision-resistant key from a
// document's path. The path is canonicalized to an absolute path first
// so relative invocations of the same file share a checkpoint.
func DocumentKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])
}

// PageSet tracks processed pages for one run. Append-only: indices are
// only ever added, and at most once.
type PageSet struct {
	pages []int
	seen  map[int]bool
}

// NewPageSet creates a PageSet seeded with already-checkpointed indices.
func NewPageSet(initial []int) *PageSet {
	s := &PageSet{seen: make(map[int]bool, len(initial))}
	for _, p := range initial {
		if !s.seen[p] {
			s.seen[p] = true
			s.pages = append(s.pages, p)
		}
	}
	return s
}

// Add records a page index. Duplicates are ignored.
func (s *PageSet) Add(page int) {
	if s.seen[page] {
		return
	}
	s.seen[page] = true
	s.pages = append(s.pages, page)
}

// Contains reports whether a page index has been recorded.
func (s *PageSet) Contains(page int) bool {
	return s.seen[page]
}

// Pages returns the recorded indices in insertion order.
func (s *PageSet) Pages() []int {
	out := make([]int, len(s.pages))
	copy(out, s.pages)
	return out
}

// Len returns the number of recorded indices.
func (s *PageSet) Len() int {
	return len(s.pages)
}
