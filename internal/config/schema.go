package config

import (
	"runtime"

	"github.com/jackzampolin/scanmd/internal/layout"
	"github.com/jackzampolin/scanmd/internal/raster"
)

// Config holds scanmd configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Pipeline PipelineCfg `mapstructure:"pipeline" yaml:"pipeline"`
	Engine   string      `mapstructure:"engine" yaml:"engine"` // "tesseract" or "openai"
	Engines  EnginesCfg  `mapstructure:"engines" yaml:"engines"`
	Monitor  MonitorCfg  `mapstructure:"monitor" yaml:"monitor"`
}

// PipelineCfg tunes the batch scheduler and concurrency gateway.
type PipelineCfg struct {
	// BatchSize is the number of pages scheduled per window.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`

	// DPI is the rasterization resolution for PDF pages.
	DPI int `mapstructure:"dpi" yaml:"dpi"`

	// OCRConcurrency caps concurrent document runs system-wide.
	OCRConcurrency int `mapstructure:"ocr_concurrency" yaml:"ocr_concurrency"`

	// Workers is the per-window OCR worker count (default: CPU count).
	Workers int `mapstructure:"workers" yaml:"workers"`

	// VerticalThreshold is the paragraph-break gap in pixels.
	VerticalThreshold float64 `mapstructure:"vertical_threshold" yaml:"vertical_threshold"`

	// ClearAcceleratorCacheEachPage releases accelerator memory after
	// every page instead of only on backoff.
	ClearAcceleratorCacheEachPage bool `mapstructure:"clear_accelerator_cache_each_page" yaml:"clear_accelerator_cache_each_page"`
}

// EnginesCfg configures the available OCR engines.
type EnginesCfg struct {
	Tesseract TesseractCfg `mapstructure:"tesseract" yaml:"tesseract"`
	OpenAI    OpenAICfg    `mapstructure:"openai" yaml:"openai"`
}

// TesseractCfg configures the local tesseract engine.
type TesseractCfg struct {
	Languages      []string `mapstructure:"languages" yaml:"languages"`
	TessdataPrefix string   `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix"`
}

// OpenAICfg configures the OpenAI vision engine.
type OpenAICfg struct {
	Model  string `mapstructure:"model" yaml:"model"`
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
}

// MonitorCfg tunes the resource monitor.
type MonitorCfg struct {
	// BackoffThresholdPercent is the memory utilization above which the
	// scheduler halves its batch size.
	BackoffThresholdPercent float64 `mapstructure:"backoff_threshold_percent" yaml:"backoff_threshold_percent"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineCfg{
			BatchSize:         8,
			DPI:               raster.DefaultDPI,
			OCRConcurrency:    2,
			Workers:           runtime.NumCPU(),
			VerticalThreshold: layout.DefaultVerticalThreshold,
		},
		Engine: "tesseract",
		Engines: EnginesCfg{
			Tesseract: TesseractCfg{
				Languages: []string{"eng"},
			},
			OpenAI: OpenAICfg{
				Model:  "gpt-4o",
				APIKey: "${OPENAI_API_KEY}",
			},
		},
		Monitor: MonitorCfg{
			BackoffThresholdPercent: 80,
		},
	}
}
