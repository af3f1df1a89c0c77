package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/medreport-ai/simplifier/internal/acquire"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/ocr"
	"github.com/medreport-ai/simplifier/internal/oracle"
	"github.com/medreport-ai/simplifier/internal/oracle/gemini"
	"github.com/medreport-ai/simplifier/internal/oracle/ollama"
	"github.com/medreport-ai/simplifier/internal/pipeline"
	"github.com/medreport-ai/simplifier/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newOracleClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("oracle client init failed", "provider", cfg.Oracle.Provider, "error", err)
		os.Exit(1)
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

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	server.New(pipe, logger).Register(e)

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr, "provider", cfg.Oracle.Provider, "model", cfg.Oracle.Model)
		if err := e.Start(cfg.Server.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func newOracleClient(ctx context.Context, cfg *common.Config, logger *slog.Logger) (oracle.Client, error) {
	switch cfg.Oracle.Provider {
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{
			APIKey: cfg.Oracle.APIKey,
			Model:  cfg.Oracle.Model,
		}, logger)
	default:
		return ollama.NewClient(ollama.Config{
			BaseURL: cfg.Oracle.BaseURL,
			Model:   cfg.Oracle.Model,
			Timeout: cfg.Oracle.Timeout,
		}, logger), nil
	}
}
