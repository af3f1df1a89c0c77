package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/medreport-ai/simplifier/constants"
)

// ExtractPDF extracts a PDF page by page. PDFs with a text layer take the
// pdftotext fast path and are flagged Digital; scanned PDFs are rasterized
// with pdftoppm and each page goes through tesseract.
func (e *Engine) ExtractPDF(ctx context.Context, path string) (Result, error) {
	start := time.Now()

	if pages, ok := e.pdfTextLayer(ctx, path); ok {
		return Result{
			Pages:      pages,
			SourceType: constants.PDF,
			Method:     "pdf-text",
			Digital:    true,
			Duration:   time.Since(start),
		}, nil
	}

	pages, warns, err := e.pdfOCR(ctx, path)
	if err != nil {
		return Result{SourceType: constants.PDF, Warnings: warns}, err
	}
	return Result{
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Duration:   time.Since(start),
		Warnings:   warns,
	}, nil
}

// pdfTextLayer returns the embedded text split per page, or ok=false when
// the PDF has no usable text layer.
func (e *Engine) pdfTextLayer(ctx context.Context, path string) ([]Page, bool) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		e.logger.Debug("ocr.pdftotext_unavailable", "path", path, "error", err, "stderr", truncate(string(errb), 512))
		return nil, false
	}
	if strings.TrimSpace(string(out)) == "" {
		return nil, false
	}

	// A form-feed \f is used as page separator by default.
	var pages []Page
	for _, pg := range strings.Split(string(out), "\f") {
		if strings.TrimSpace(pg) == "" {
			continue
		}
		pages = append(pages, Page{Text: Normalize(pg)})
	}
	if len(pages) == 0 {
		return nil, false
	}
	return pages, true
}

func (e *Engine) pdfOCR(ctx context.Context, path string) ([]Page, []string, error) {
	tmpDir, err := os.MkdirTemp("", "mrs-pp-*")
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("ocr.tmpdir_cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var pages []Page
	var warns []string
	for _, img := range matches {
		pg, err := e.ExtractImage(ctx, img)
		if err != nil {
			// A single unreadable page fails the document: partial results
			// would silently skew the pooled confidence.
			return nil, warns, fmt.Errorf("page %s: %w", filepath.Base(img), err)
		}
		pages = append(pages, pg)
	}
	return pages, warns, nil
}
