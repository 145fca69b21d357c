package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore persists checkpoints as one JSON array of page indices per
// document under a temporary directory. The format is a private cache,
// not a public contract: anything unreadable degrades to "no
// checkpoint".
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Path returns the checkpoint file path for a document key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, key+"_checkpoint.json")
}

// Load reads the processed pages for a document. Missing or corrupt
// files read as empty - the run starts fresh.
func (s *FileStore) Load(key string) []int {
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed to read checkpoint", "key", key, "error", err)
		}
		return nil
	}

	var pages []int
	if err := json.Unmarshal(data, &pages); err != nil {
		s.logger.Error("corrupt checkpoint, starting fresh", "key", key, "error", err)
		return nil
	}
	return pages
}

// Save writes the full processed set, overwriting any prior version.
// Failures are logged and dropped: the page can be reprocessed.
func (s *FileStore) Save(key string, pages []int) {
	data, err := json.Marshal(pages)
	if err != nil {
		s.logger.Error("failed to marshal checkpoint", "key", key, "error", err)
		return
	}
	if err := os.WriteFile(s.Path(key), data, 0o644); err != nil {
		s.logger.Error("failed to save checkpoint", "key", key, "error", err)
	}
}

// Delete removes a document's checkpoint file. A failure to delete is
// non-fatal; the stale file only causes redundant skips next run.
func (s *FileStore) Delete(key string) {
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		s.logger.Error("failed to delete checkpoint", "key", key, "error", err)
	}
}

// Verify interface
var _ Store = (*FileStore)(nil)
