package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/medreport-ai/simplifier/constants"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/ocr"
)

// TextBlob is the acquisition stage's immutable output: the document text,
// its non-empty lines in order, and a process-level quality estimate.
type TextBlob struct {
	RawText    string   `json:"raw_text"`
	Lines      []string `json:"lines"`
	Confidence float64  `json:"confidence"`
}

// DocumentReader is the OCR collaborator consumed by acquisition.
type DocumentReader interface {
	ExtractImage(ctx context.Context, path string) (ocr.Page, error)
	ExtractPDF(ctx context.Context, path string) (ocr.Result, error)
}

// Acquirer turns raw input into a TextBlob.
type Acquirer struct {
	reader DocumentReader
	logger *slog.Logger
}

func NewAcquirer(reader DocumentReader, logger *slog.Logger) *Acquirer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{reader: reader, logger: logger}
}

// FromText wraps already-digital text; confidence is fixed at 1.0.
func FromText(text string) TextBlob {
	return TextBlob{
		RawText:    strings.TrimSpace(text),
		Lines:      splitLines(text),
		Confidence: 1.0,
	}
}

// FromDocument decodes image or PDF bytes into a TextBlob. Any decode or
// OCR failure is fatal for the stage; no partial results are returned.
func (a *Acquirer) FromDocument(ctx context.Context, data []byte, mediaType string) (TextBlob, error) {
	format := constants.MapMediaTypeToFormat(mediaType)
	switch format {
	case constants.TEXT:
		return FromText(string(data)), nil
	case constants.IMAGE, constants.PDF:
	default:
		return TextBlob{}, fmt.Errorf("%w: unsupported media type %q", common.ErrInvalidInput, mediaType)
	}

	path, cleanup, err := writeTemp(data, constants.ExtForFormat(format))
	if err != nil {
		return TextBlob{}, fmt.Errorf("%w: stage input: %w", common.ErrAcquisition, err)
	}
	defer cleanup()

	var pages []ocr.Page
	digital := false
	switch format {
	case constants.IMAGE:
		pg, err := a.reader.ExtractImage(ctx, path)
		if err != nil {
			return TextBlob{}, fmt.Errorf("%w: image ocr: %w", common.ErrAcquisition, err)
		}
		pages = []ocr.Page{pg}
	case constants.PDF:
		res, err := a.reader.ExtractPDF(ctx, path)
		if err != nil {
			return TextBlob{}, fmt.Errorf("%w: pdf ocr: %w", common.ErrAcquisition, err)
		}
		pages = res.Pages
		digital = res.Digital
	}

	blob := blobFromPages(pages, digital)
	a.logger.Info("acquire.ok",
		"format", format,
		"pages", len(pages),
		"digital", digital,
		"lines", len(blob.Lines),
		"confidence", blob.Confidence,
	)
	return blob, nil
}

// FromFile reads a local file and routes it by extension. Used by the CLIs.
func (a *Acquirer) FromFile(ctx context.Context, path string) (TextBlob, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return TextBlob{}, fmt.Errorf("%w: unsupported extension %q", common.ErrInvalidInput, filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return TextBlob{}, fmt.Errorf("%w: read file: %w", common.ErrAcquisition, err)
	}
	switch format {
	case constants.TEXT:
		return FromText(string(data)), nil
	case constants.PDF:
		return a.FromDocument(ctx, data, "application/pdf")
	default:
		return a.FromDocument(ctx, data, "image/"+constants.NormalizeExt(filepath.Ext(path)))
	}
}

// blobFromPages concatenates page text and lines in page order, then pools
// every positive token confidence across ALL pages before averaging. Pooling
// first matters: a per-page average of averages would weight a sparse bad
// page the same as a dense good one.
func blobFromPages(pages []ocr.Page, digital bool) TextBlob {
	var texts []string
	var lines []string
	var confidences []int
	for _, pg := range pages {
		t := strings.TrimSpace(pg.Text)
		texts = append(texts, t)
		lines = append(lines, splitLines(t)...)
		for _, tok := range pg.Tokens {
			if tok.Confidence > 0 {
				confidences = append(confidences, tok.Confidence)
			}
		}
	}

	confidence := 0.0
	if digital {
		confidence = 1.0
	} else if len(confidences) > 0 {
		sum := 0
		for _, c := range confidences {
			sum += c
		}
		confidence = round2(float64(sum) / float64(len(confidences)) / 100.0)
	}

	return TextBlob{
		RawText:    strings.Join(texts, "\n"),
		Lines:      lines,
		Confidence: confidence,
	}
}

func splitLines(s string) []string {
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func writeTemp(data []byte, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "mrs-doc-*."+ext)
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
