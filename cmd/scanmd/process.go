package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/scanmd/internal/assemble"
	"github.com/jackzampolin/scanmd/internal/checkpoint"
	"github.com/jackzampolin/scanmd/internal/config"
	"github.com/jackzampolin/scanmd/internal/gateway"
	"github.com/jackzampolin/scanmd/internal/home"
	"github.com/jackzampolin/scanmd/internal/monitor"
	"github.com/jackzampolin/scanmd/internal/ocr"
	"github.com/jackzampolin/scanmd/internal/pipeline"
	"github.com/jackzampolin/scanmd/internal/raster"
)

var (
	processEngine string
	processOutDir string
	processQuiet  bool
)

var processCmd = &cobra.Command{
	Use:   "process <file>...",
	Short: "OCR documents and write markdown output",
	Long: `Extract text from scanned PDFs and images.

PDF pages are rasterized and OCR'd in resumable batches: interrupting a
run and re-running it picks up where it left off. Standalone images
(png, jpeg, gif, bmp, tiff, webp) are preprocessed and OCR'd in one
shot.

Output lands in the scanmd home output directory as one markdown file
per input document.

Examples:
  scanmd process book.pdf
  scanmd process scan1.png scan2.jpg
  scanmd process --engine openai book.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		level := slog.LevelInfo
		if processQuiet {
			level = slog.LevelWarn
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}))

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		mgr.OnChange(func(cfg *config.Config) {
			logger.Info("config reloaded, new settings apply to subsequent documents")
		})
		mgr.WatchConfig()
		cfg := mgr.Get()

		engineName := processEngine
		if engineName == "" {
			engineName = cfg.Engine
		}
		engine, cleanup, err := buildEngine(engineName, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		store, err := checkpoint.NewFileStore(h.TmpPath(), logger)
		if err != nil {
			return err
		}

		runner := pipeline.NewRunner(pipeline.Config{
			Options: pipeline.Options{
				BatchSize:                     cfg.Pipeline.BatchSize,
				DPI:                           cfg.Pipeline.DPI,
				Workers:                       cfg.Pipeline.Workers,
				VerticalThreshold:             cfg.Pipeline.VerticalThreshold,
				ClearAcceleratorCacheEachPage: cfg.Pipeline.ClearAcceleratorCacheEachPage,
			},
			Checkpoints: store,
			Renderer:    raster.NewPDFRenderer(),
			Monitor: monitor.New(monitor.Config{
				BackoffThreshold: cfg.Monitor.BackoffThresholdPercent,
				Logger:           logger,
			}),
			Logger: logger,
		})

		outDir := processOutDir
		if outDir == "" {
			outDir = h.OutputPath()
		}

		gw := gateway.New(int64(cfg.Pipeline.OCRConcurrency), logger)
		outPaths := outputPaths(outDir, args)

		done := make([]<-chan error, len(args))
		for i, path := range args {
			done[i] = gw.Go(ctx, path, func(ctx context.Context) error {
				return processDocument(ctx, runner, engine, path, outPaths[path], logger)
			})
		}

		var failed int
		for i, ch := range done {
			if err := <-ch; err != nil {
				logger.Error("document failed", "document", args[i], "error", err)
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	},
}

// processDocument runs one file through the pipeline and writes its
// markdown to outPath.
func processDocument(ctx context.Context, runner *pipeline.Runner, engine ocr.Engine, path, outPath string, logger *slog.Logger) error {
	var (
		result *pipeline.Result
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		result, err = runner.RunPDF(ctx, path, engine)
	} else {
		result, err = runner.RunImage(ctx, path, engine)
	}
	if err != nil {
		return err
	}

	if len(result.FailedPages) > 0 {
		logger.Warn("some pages failed and will be retried next run",
			"document", path,
			"failed_pages", result.FailedPages)
	}
	if len(result.Records) == 0 {
		logger.Info("no text extracted", "document", path)
		return nil
	}

	if err := writeMarkdown(outPath, result.Records); err != nil {
		return err
	}
	logger.Info("wrote markdown",
		"document", path,
		"output", outPath,
		"pages", len(result.Records))
	return nil
}

// outputPaths assigns each input document a distinct markdown file in
// outDir. Colliding basenames get a numeric suffix in argument order so
// a/scan.pdf and b/scan.pdf never overwrite each other. The same path
// listed twice shares one output file.
func outputPaths(outDir string, docs []string) map[string]string {
	used := make(map[string]bool, len(docs))
	paths := make(map[string]string, len(docs))
	for _, doc := range docs {
		if _, ok := paths[doc]; ok {
			continue
		}
		base := filepath.Base(doc)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s-%d", name, n)
		}
		used[candidate] = true
		paths[doc] = filepath.Join(outDir, candidate+".md")
	}
	return paths
}

// writeMarkdown concatenates page records in page order into one file.
func writeMarkdown(path string, records []assemble.PageRecord) error {
	sorted := make([]assemble.PageRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].PageNumber, sorted[j].PageNumber
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	for _, rec := range sorted {
		if _, err := io.WriteString(f, rec.Content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := io.WriteString(f, "\n"); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return f.Close()
}

// buildEngine constructs the configured OCR engine. The returned cleanup
// releases engine resources and is safe to call once.
func buildEngine(name string, cfg *config.Config) (ocr.Engine, func(), error) {
	switch name {
	case ocr.TesseractName:
		engine, err := ocr.NewTesseractEngine(ocr.TesseractConfig{
			Languages:      cfg.Engines.Tesseract.Languages,
			TessdataPrefix: cfg.Engines.Tesseract.TessdataPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return engine, func() { engine.Close() }, nil
	case ocr.OpenAIName:
		key := cfg.OpenAIAPIKey()
		if key == "" {
			return nil, nil, fmt.Errorf("openai engine requires an API key (set OPENAI_API_KEY or engines.openai.api_key)")
		}
		engine := ocr.NewOpenAIEngine(ocr.OpenAIConfig{
			APIKey: key,
			Model:  cfg.Engines.OpenAI.Model,
		})
		return engine, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown OCR engine %q (want %q or %q)", name, ocr.TesseractName, ocr.OpenAIName)
	}
}

func init() {
	processCmd.Flags().StringVar(&processEngine, "engine", "", "OCR engine: tesseract or openai (default: from config)")
	processCmd.Flags().StringVar(&processOutDir, "out", "", "output directory (default: ~/.scanmd/out)")
	processCmd.Flags().BoolVarP(&processQuiet, "quiet", "q", false, "only log warnings and errors")
}
