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

// emptySummary is the fixed response for an empty record set; no oracle call
// is made for it.
const emptySummary = "No test results to summarize."

// Summarizer produces the patient-readable summary from validated records
// only. It trusts the oracle's explanations; the base data was already
// gated.
type Summarizer struct {
	client  oracle.Client
	opts    oracle.Options
	timeout time.Duration
	logger  *slog.Logger
}

func NewSummarizer(client oracle.Client, cfg common.OracleConfig, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		client: client,
		opts: oracle.Options{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, tests []report.TestRecord) (report.SummaryResult, error) {
	if len(tests) == 0 {
		return report.SummaryResult{Summary: emptySummary, Explanations: []report.Explanation{}}, nil
	}

	rid := uuid.New().String()
	start := time.Now()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, raw, err := oracle.CompleteJSON(ctx, s.client, buildSummaryPrompt(tests), s.opts, s.logger)
	if err != nil {
		return report.SummaryResult{}, fmt.Errorf("summarize: %w", err)
	}

	if err := report.ValidateAgainstSchema(report.SummaryResponseSchema(), raw); err != nil {
		s.logger.Error("pipeline.summarize.schema_violation", "req_id", rid, "error", err)
		return report.SummaryResult{}, fmt.Errorf("summarize: %w", err)
	}

	var res report.SummaryResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return report.SummaryResult{}, fmt.Errorf("summarize: decode: %w", common.ErrSchema)
	}
	if res.Explanations == nil {
		res.Explanations = []report.Explanation{}
	}

	s.logger.Info("pipeline.summarize.ok",
		"req_id", rid,
		"explanations", len(res.Explanations),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
