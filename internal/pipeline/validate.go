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

// Per-record admission bounds. The prompt states the same rule, but the
// decision is recomputed here from the per-record scores so a
// self-inconsistent validator response cannot smuggle records through.
const (
	perRecordAccept = 0.6
	perRecordReject = 0.4
)

// Validator is the anti-hallucination gate. It never rewrites records; on
// acceptance the original extraction set is carried forward unchanged. Every
// internal failure degrades to a rejection: the pipeline's external contract
// is binary, processed or not.
type Validator struct {
	client  oracle.Client
	opts    oracle.Options
	timeout time.Duration
	logger  *slog.Logger
}

func NewValidator(client oracle.Client, cfg common.OracleConfig, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		client: client,
		opts: oracle.Options{
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (v *Validator) Validate(ctx context.Context, originalText string, tests []report.TestRecord) report.ValidationOutcome {
	if len(tests) == 0 {
		return report.Reject("no tests extracted from input", 0.0)
	}

	rid := uuid.New().String()
	start := time.Now()

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	_, raw, err := oracle.CompleteJSON(ctx, v.client, buildValidationPrompt(originalText, tests), v.opts, v.logger)
	if err != nil {
		v.logger.Error("pipeline.validate.oracle_error", "req_id", rid, "error", err)
		return report.Reject(fmt.Sprintf("validation error: %v", err), 0.0)
	}

	if err := report.ValidateAgainstSchema(report.ValidationResponseSchema(), raw); err != nil {
		v.logger.Error("pipeline.validate.schema_violation", "req_id", rid, "error", err)
		return report.Reject(fmt.Sprintf("validation error: %v", err), 0.0)
	}

	var env struct {
		Status          string  `json:"status"`
		Reason          string  `json:"reason"`
		Confidence      float64 `json:"confidence"`
		TestValidations []struct {
			TestName   string  `json:"test_name"`
			IsValid    bool    `json:"is_valid"`
			Confidence float64 `json:"confidence"`
			Evidence   string  `json:"evidence"`
		} `json:"test_validations"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return report.Reject(fmt.Sprintf("validation error: %v", common.ErrSchema), 0.0)
	}

	// Recompute the decision from per-record scores when present.
	if n := len(env.TestValidations); n > 0 {
		var sum float64
		min := env.TestValidations[0].Confidence
		weakest := env.TestValidations[0].TestName
		for _, tv := range env.TestValidations {
			sum += tv.Confidence
			if tv.Confidence < min {
				min = tv.Confidence
				weakest = tv.TestName
			}
		}
		mean := sum / float64(n)

		if min >= perRecordAccept {
			v.logger.Info("pipeline.validate.accepted",
				"req_id", rid, "tests", len(tests), "confidence", mean,
				"elapsed_ms", time.Since(start).Milliseconds())
			return report.Accept(tests, mean)
		}

		reason := fmt.Sprintf("insufficient textual support for %q (confidence %.2f)", weakest, min)
		if min < perRecordReject {
			reason = fmt.Sprintf("likely hallucinated record %q (confidence %.2f)", weakest, min)
		}
		v.logger.Warn("pipeline.validate.rejected",
			"req_id", rid, "reason", reason, "confidence", mean,
			"elapsed_ms", time.Since(start).Milliseconds())
		return report.Reject(reason, mean)
	}

	// No per-record scores: fall back to the oracle's own aggregation.
	if env.Status == "ok" {
		v.logger.Info("pipeline.validate.accepted",
			"req_id", rid, "tests", len(tests), "confidence", env.Confidence,
			"recomputed", false, "elapsed_ms", time.Since(start).Milliseconds())
		return report.Accept(tests, env.Confidence)
	}
	reason := env.Reason
	if reason == "" {
		reason = "validation rejected the extraction"
	}
	v.logger.Warn("pipeline.validate.rejected",
		"req_id", rid, "reason", reason, "confidence", env.Confidence,
		"recomputed", false, "elapsed_ms", time.Since(start).Milliseconds())
	return report.Reject(reason, env.Confidence)
}
