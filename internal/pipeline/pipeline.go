// Package pipeline drives documents through OCR: resumable page-batch
// scheduling, adaptive backoff under memory pressure, and assembly of
// the final markdown page records.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jackzampolin/scanmd/internal/assemble"
	"github.com/jackzampolin/scanmd/internal/checkpoint"
	"github.com/jackzampolin/scanmd/internal/layout"
	"github.com/jackzampolin/scanmd/internal/monitor"
	"github.com/jackzampolin/scanmd/internal/ocr"
	"github.com/jackzampolin/scanmd/internal/raster"
)

// Options tunes a Runner.
type Options struct {
	// BatchSize is the number of pages scheduled per window (default 8).
	BatchSize int

	// DPI is the rasterization resolution (default 300).
	DPI int

	// Workers caps concurrent OCR submissions within a window
	// (default: CPU count).
	Workers int

	// VerticalThreshold is the layout paragraph-break gap (default 10).
	VerticalThreshold float64

	// ClearAcceleratorCacheEachPage releases accelerator memory after
	// every page.
	ClearAcceleratorCacheEachPage bool
}

// ResourceMonitor is the subset of the resource monitor the scheduler
// polls between windows.
type ResourceMonitor interface {
	ShouldBackOff() bool
	ClearAcceleratorCache()
}

// Runner processes documents through the OCR pipeline.
type Runner struct {
	opts        Options
	checkpoints checkpoint.Store
	registry    *ocr.Registry
	renderer    raster.Renderer
	monitor     ResourceMonitor
	logger      *slog.Logger
}

// Config wires a Runner's collaborators.
type Config struct {
	Options     Options
	Checkpoints checkpoint.Store
	Registry    *ocr.Registry
	Renderer    raster.Renderer
	Monitor     ResourceMonitor
	Logger      *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg Config) *Runner {
	opts := cfg.Options
	if opts.BatchSize <= 0 {
		opts.BatchSize = 8
	}
	if opts.DPI <= 0 {
		opts.DPI = raster.DefaultDPI
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.VerticalThreshold <= 0 {
		opts.VerticalThreshold = layout.DefaultVerticalThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mon := cfg.Monitor
	if mon == nil {
		mon = monitor.New(monitor.Config{Logger: logger})
	}
	reg := cfg.Registry
	if reg == nil {
		reg = ocr.NewRegistry(logger)
	}
	return &Runner{
		opts:        opts,
		checkpoints: cfg.Checkpoints,
		registry:    reg,
		renderer:    cfg.Renderer,
		monitor:     mon,
		logger:      logger,
	}
}

// Result reports one document run.
type Result struct {
	// Records holds successfully OCR'd pages in completion order.
	// Callers needing page order must sort by PageNumber.
	Records []assemble.PageRecord

	// FailedPages lists pages whose recognition failed this run. They
	// stay out of the checkpoint so a future run retries them.
	FailedPages []int

	// CheckpointDeleted is true when the run fully succeeded and the
	// checkpoint was cleaned up.
	CheckpointDeleted bool
}

// pageOutcome pairs a page index with its recognition result inside one
// window.
type pageOutcome struct {
	page int
	rec  ocr.Recognition
}

// RunPDF processes all pages of a PDF document. The run resumes from
// any persisted checkpoint and is safe to re-run after interruption.
//
// A failure to open or rasterize the document aborts the whole run with
// an empty result; per-page recognition failures only skip that page.
func (r *Runner) RunPDF(ctx context.Context, pdfPath string, engine ocr.Engine) (*Result, error) {
	key := checkpoint.DocumentKey(pdfPath)
	processed := checkpoint.NewPageSet(r.checkpoints.Load(key))
	failed := make(map[int]bool)

	numPages, err := r.renderer.PageCount(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	gate := r.registry.Gate(engine)
	batchSize := r.opts.BatchSize
	result := &Result{}

	r.logger.Info("starting OCR run",
		"document", pdfPath,
		"pages", numPages,
		"checkpointed", processed.Len(),
		"engine", engine.Name())

	windowStart := 0
	for windowStart < numPages {
		windowEnd := windowStart + batchSize
		if windowEnd > numPages {
			windowEnd = numPages
		}

		var pages []int
		for p := windowStart; p < windowEnd; p++ {
			if !processed.Contains(p) && !failed[p] {
				pages = append(pages, p)
			}
		}
		if len(pages) == 0 {
			windowStart = windowEnd
			continue
		}

		windowTime := time.Now()
		r.logger.Debug("processing window", "pages", pages, "batch_size", batchSize)

		// Re-rasterize on every attempt rather than holding large image
		// buffers across a backoff pause.
		images := make(map[int][]byte, len(pages))
		for _, p := range pages {
			img, err := r.renderer.Render(ctx, pdfPath, p, r.opts.DPI)
			if err != nil {
				return nil, fmt.Errorf("failed to rasterize page %d: %w", p, err)
			}
			images[p] = img
		}

		outcomes, err := r.runWindow(ctx, gate, pages, images)
		if err != nil {
			return nil, err
		}

		exhausted := false
		for _, o := range outcomes {
			switch o.rec.Outcome {
			case ocr.OutcomeOK:
				r.acceptPage(key, o, engine, processed, result)
			case ocr.OutcomeResourceExhausted:
				if batchSize == 1 {
					// Already at the floor: record the page as failed so
					// the run terminates. It stays out of the checkpoint
					// and a future run retries it.
					r.logger.Warn("page OOM'd at minimum batch size, skipping",
						"page", o.page, "error", o.rec.Err)
					failed[o.page] = true
				} else {
					exhausted = true
				}
			case ocr.OutcomeFailed:
				r.logger.Warn("page recognition failed",
					"page", o.page, "error", o.rec.Err)
				failed[o.page] = true
			}
			if r.opts.ClearAcceleratorCacheEachPage {
				r.monitor.ClearAcceleratorCache()
			}
		}

		if exhausted {
			// Accelerator out of memory: halve the batch and retry this
			// window's remaining pages.
			batchSize = halve(batchSize)
			r.logger.Warn("reducing batch size after accelerator OOM",
				"batch_size", batchSize)
			r.monitor.ClearAcceleratorCache()
			continue
		}

		if r.monitor.ShouldBackOff() {
			batchSize = halve(batchSize)
			r.logger.Warn("reducing batch size due to memory pressure",
				"batch_size", batchSize)
		}

		r.logger.Debug("window processed",
			"pages", pages,
			"elapsed", time.Since(windowTime))
		windowStart = windowEnd
	}

	for p := range failed {
		result.FailedPages = append(result.FailedPages, p)
	}

	if len(result.FailedPages) > 0 {
		r.logger.Warn("OCR run completed with failures",
			"failed_pages", len(result.FailedPages))
	} else {
		r.checkpoints.Delete(key)
		result.CheckpointDeleted = true
		r.logger.Info("OCR run complete", "pages", processed.Len())
	}

	return result, nil
}

// runWindow fans a window's pages out to the worker pool and awaits all
// results. A single page's failure never cancels its siblings, so
// worker funcs always return nil.
func (r *Runner) runWindow(ctx context.Context, gate *ocr.Gate, pages []int, images map[int][]byte) ([]pageOutcome, error) {
	var (
		mu       sync.Mutex
		outcomes []pageOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, page := range pages {
		g.Go(func() error {
			rec := gate.Recognize(gctx, images[page])
			mu.Lock()
			outcomes = append(outcomes, pageOutcome{page: page, rec: rec})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// acceptPage reconstructs, assembles, and checkpoints one successful
// page.
func (r *Runner) acceptPage(key string, o pageOutcome, engine ocr.Engine, processed *checkpoint.PageSet, result *Result) {
	text := o.rec.Text
	conf := o.rec.Confidence
	if engine.Structured() {
		text, conf = layout.ToMarkdown(o.rec.Detections, r.opts.VerticalThreshold)
	}
	if text == "" {
		// Nothing recognized; don't emit an empty record, but count the
		// page done so it is not endlessly retried.
		processed.Add(o.page)
		r.checkpoints.Save(key, processed.Pages())
		return
	}

	page := o.page
	result.Records = append(result.Records, assemble.Page(assemble.PageRecordInput{
		Text:              text,
		PageIndex:         &page,
		ImageFormat:       "png",
		AverageConfidence: conf,
	}))
	processed.Add(o.page)
	r.checkpoints.Save(key, processed.Pages())
}

// RunImage processes a single standalone scan image. No checkpointing:
// one page either succeeds or the next run redoes it from scratch.
func (r *Runner) RunImage(ctx context.Context, imagePath string, engine ocr.Engine) (*Result, error) {
	loaded, err := raster.LoadImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	input, err := raster.Preprocess(loaded.PNG)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess image: %w", err)
	}

	gate := r.registry.Gate(engine)
	rec := gate.Recognize(ctx, input)
	if rec.Outcome != ocr.OutcomeOK {
		r.logger.Warn("image recognition failed", "image", imagePath, "error", rec.Err)
		return &Result{}, nil
	}

	text := rec.Text
	conf := rec.Confidence
	if engine.Structured() {
		text, conf = layout.ToMarkdown(rec.Detections, r.opts.VerticalThreshold)
	}

	result := &Result{}
	if text != "" {
		result.Records = append(result.Records, assemble.Page(assemble.PageRecordInput{
			Text:              text,
			ImageFormat:       loaded.Format,
			AverageConfidence: conf,
		}))
	}
	if r.opts.ClearAcceleratorCacheEachPage {
		r.monitor.ClearAcceleratorCache()
	}
	return result, nil
}

// halve reduces a batch size with a floor of one page.
func halve(n int) int {
	n /= 2
	if n < 1 {
		n = 1
	}
	return n
}
