// runpipeline runs the full pipeline on a local file (or text from stdin
// with "-") and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/medreport-ai/simplifier/constants"
	"github.com/medreport-ai/simplifier/internal/acquire"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/ocr"
	"github.com/medreport-ai/simplifier/internal/oracle"
	"github.com/medreport-ai/simplifier/internal/oracle/gemini"
	"github.com/medreport-ai/simplifier/internal/oracle/ollama"
	"github.com/medreport-ai/simplifier/internal/pipeline"
	"github.com/medreport-ai/simplifier/internal/report"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: runpipeline <file | ->")
		os.Exit(2)
	}
	arg := os.Args[1]

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()

	var client oracle.Client
	var err error
	switch cfg.Oracle.Provider {
	case "gemini":
		client, err = gemini.NewClient(ctx, gemini.Config{APIKey: cfg.Oracle.APIKey, Model: cfg.Oracle.Model}, logger)
		if err != nil {
			logger.Error("oracle client init failed", "error", err)
			os.Exit(1)
		}
	default:
		client = ollama.NewClient(ollama.Config{
			BaseURL: cfg.Oracle.BaseURL,
			Model:   cfg.Oracle.Model,
			Timeout: cfg.Oracle.Timeout,
		}, logger)
	}

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

	pipe := pipeline.New(
		acquire.NewAcquirer(engine, logger),
		pipeline.NewExtractor(client, cfg.Oracle, logger),
		pipeline.NewValidator(client, cfg.Oracle, logger),
		pipeline.NewSummarizer(client, cfg.Oracle, logger),
		cfg.Pipeline,
		logger,
	)

	var res report.PipelineResult
	switch {
	case arg == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Error("read stdin", "error", err)
			os.Exit(1)
		}
		res = pipe.RunText(ctx, string(data))
	case constants.MapExtToFormat(filepath.Ext(arg)) == constants.TEXT:
		data, err := os.ReadFile(arg)
		if err != nil {
			logger.Error("read file", "path", arg, "error", err)
			os.Exit(1)
		}
		res = pipe.RunText(ctx, string(data))
	default:
		data, err := os.ReadFile(arg)
		if err != nil {
			logger.Error("read file", "path", arg, "error", err)
			os.Exit(1)
		}
		mediaType := "application/pdf"
		if constants.MapExtToFormat(filepath.Ext(arg)) == constants.IMAGE {
			mediaType = "image/" + constants.NormalizeExt(filepath.Ext(arg))
		}
		res, err = pipe.RunDocument(ctx, data, mediaType)
		if err != nil {
			logger.Error("pipeline failed", "path", arg, "error", err)
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
