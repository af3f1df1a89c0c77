package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/oracle"
	"github.com/medreport-ai/simplifier/internal/report"
)

// defaultNormalizationConfidence is a neutral prior used when the oracle
// omits the field, not a measured value.
const defaultNormalizationConfidence = 0.8

// Extractor turns raw report text into admitted TestRecords. One oracle
// round-trip per call; a schema violation is fatal, never retried.
type Extractor struct {
	client  oracle.Client
	opts    oracle.Options
	timeout time.Duration
	logger  *slog.Logger
}

func NewExtractor(client oracle.Client, cfg common.OracleConfig, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client: client,
		opts: oracle.Options{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (e *Extractor) Extract(ctx context.Context, rawText string) (report.ExtractionResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	_, raw, err := oracle.CompleteJSON(ctx, e.client, buildExtractionPrompt(rawText), e.opts, e.logger)
	if err != nil {
		return report.ExtractionResult{}, fmt.Errorf("extract: %w", err)
	}

	if err := report.ValidateAgainstSchema(report.ExtractionResponseSchema(), raw); err != nil {
		e.logger.Error("pipeline.extract.schema_violation", "req_id", rid, "error", err)
		return report.ExtractionResult{}, fmt.Errorf("extract: %w", err)
	}

	var env struct {
		Tests                   []json.RawMessage `json:"tests"`
		NormalizationConfidence *float64          `json:"normalization_confidence"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return report.ExtractionResult{}, fmt.Errorf("extract: decode envelope: %w", common.ErrSchema)
	}

	tests, dropped := report.AdmitRecords(env.Tests)
	for _, reason := range dropped {
		e.logger.Warn("pipeline.extract.candidate_dropped", "req_id", rid, "reason", reason)
	}

	confidence := defaultNormalizationConfidence
	if env.NormalizationConfidence != nil {
		confidence = *env.NormalizationConfidence
	}

	e.logger.Info("pipeline.extract.ok",
		"req_id", rid,
		"candidates", len(env.Tests),
		"admitted", len(tests),
		"dropped", len(dropped),
		"normalization_confidence", confidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report.ExtractionResult{Tests: tests, NormalizationConfidence: confidence}, nil
}
