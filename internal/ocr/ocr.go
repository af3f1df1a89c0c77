package ocr

import (
	"log/slog"
	"time"
)

// Config controls the external OCR toolchain.
type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Token is one recognized word with the engine's 0..100 confidence.
type Token struct {
	Text       string
	Confidence int
}

// Page is the engine output for a single page image. Tokens is nil when the
// text did not come from recognition (digital text layer).
type Page struct {
	Text   string
	Tokens []Token
}

// Result is the whole-document engine output, one Page per input page.
type Result struct {
	Pages      []Page
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Digital    bool   // text came from a PDF text layer, not recognition
	Duration   time.Duration
	Warnings   []string
}

// Engine shells out to tesseract/poppler. It is the OCR collaborator the
// acquisition stage depends on; callers never see the toolchain.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Engine{cfg: cfg, runner: execRunner{}, logger: logger}
}
