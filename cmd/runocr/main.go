// runocr extracts text from a single local document and prints the
// acquisition output as JSON. Useful for tuning OCR settings without
// touching an oracle.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/medreport-ai/simplifier/internal/acquire"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/ocr"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: runocr <file>")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	engine := ocr.NewEngine(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Pdftotext:     cfg.OCR.Pdftotext,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
	}, logger)

	acquirer := acquire.NewAcquirer(engine, logger)
	blob, err := acquirer.FromFile(context.Background(), os.Args[1])
	if err != nil {
		logger.Error("acquisition failed", "path", os.Args[1], "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(blob); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
