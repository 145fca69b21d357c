// Package raster renders document pages and scan images into encoded
// raster buffers for OCR.
package raster

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI is the rasterization resolution when none is configured.
const DefaultDPI = 300

// Renderer rasterizes single pages of a document.
type Renderer interface {
	// PageCount returns the number of pages in the document.
	PageCount(path string) (int, error)

	// Render rasterizes one zero-indexed page at the given DPI and
	// returns PNG-encoded bytes.
	Render(ctx context.Context, path string, pageIndex, dpi int) ([]byte, error)
}

// PDFRenderer renders PDF pages to PNG via pdftoppm (poppler-utils),
// with pdfcpu providing the page count.
type PDFRenderer struct{}

// NewPDFRenderer creates a PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// PageCount returns the PDF's page count.
func (r *PDFRenderer) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// Render rasterizes one page using pdftoppm.
func (r *PDFRenderer) Render(ctx context.Context, path string, pageIndex, dpi int) ([]byte, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	tmpDir, err := os.MkdirTemp("", "scanmd-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")

	// pdftoppm pages are 1-indexed.
	// -singlefile: don't add page number suffix
	pageStr := strconv.Itoa(pageIndex + 1)
	cmd := exec.CommandContext(ctx, "pdftoppm",
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(dpi),
		"-singlefile",
		path,
		outputPrefix,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w (output: %s)", err, string(output))
	}

	srcPath := outputPrefix + ".png"
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	return data, nil
}

// Verify interface
var _ Renderer = (*PDFRenderer)(nil)
