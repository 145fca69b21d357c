package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pipeline.BatchSize <= 0 {
		t.Error("expected positive default batch size")
	}
	if cfg.Pipeline.DPI != 300 {
		t.Errorf("expected default DPI 300, got %d", cfg.Pipeline.DPI)
	}
	if cfg.Pipeline.OCRConcurrency != 2 {
		t.Errorf("expected default OCR concurrency 2, got %d", cfg.Pipeline.OCRConcurrency)
	}
	if cfg.Engine != "tesseract" {
		t.Errorf("expected default engine tesseract, got %s", cfg.Engine)
	}
	if cfg.Engines.OpenAI.APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected OpenAI API key placeholder")
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_OpenAIAPIKey(t *testing.T) {
	os.Setenv("TEST_OPENAI_KEY", "sk-123")
	defer os.Unsetenv("TEST_OPENAI_KEY")

	cfg := DefaultConfig()
	cfg.Engines.OpenAI.APIKey = "${TEST_OPENAI_KEY}"

	if got := cfg.OpenAIAPIKey(); got != "sk-123" {
		t.Errorf("expected sk-123, got %s", got)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("loads from config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configFile := filepath.Join(tmpDir, "config.yaml")

		configContent := `
pipeline:
  batch_size: 4
  dpi: 150
engine: openai
`
		if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}

		mgr, err := NewManager(configFile)
		if err != nil {
			t.Fatalf("failed to create manager: %v", err)
		}

		cfg := mgr.Get()
		if cfg.Pipeline.BatchSize != 4 {
			t.Errorf("expected batch size 4, got %d", cfg.Pipeline.BatchSize)
		}
		if cfg.Pipeline.DPI != 150 {
			t.Errorf("expected DPI 150, got %d", cfg.Pipeline.DPI)
		}
		if cfg.Engine != "openai" {
			t.Errorf("expected engine openai, got %s", cfg.Engine)
		}
	})
}

func TestManager_WatchConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
pipeline:
  batch_size: 8
`
	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	mgr, err := NewManager(configFile)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}

	var callbackCount atomic.Int32
	var lastBatch atomic.Int32

	mgr.OnChange(func(cfg *Config) {
		callbackCount.Add(1)
		lastBatch.Store(int32(cfg.Pipeline.BatchSize))
	})

	mgr.WatchConfig()

	// Give fsnotify time to set up the watcher
	time.Sleep(100 * time.Millisecond)

	newContent := `
pipeline:
  batch_size: 2
`
	if err := os.WriteFile(configFile, []byte(newContent), 0644); err != nil {
		t.Fatalf("failed to write updated config file: %v", err)
	}

	// Wait for the watcher to detect the change (fsnotify is async)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if callbackCount.Load() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	if callbackCount.Load() == 0 {
		t.Error("callback was not invoked after config file change")
	}
	if lastBatch.Load() != 2 {
		t.Errorf("callback received batch size %d, expected 2", lastBatch.Load())
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected non-empty config file")
	}
}
