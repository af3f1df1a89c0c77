// Package pipeline wires the four stages together: acquire, extract,
// validate, summarize. The stages are constructed once and shared across
// requests; all per-request state travels through arguments and return
// values.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/medreport-ai/simplifier/internal/acquire"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/report"
)

type Pipeline struct {
	acquirer   *acquire.Acquirer
	extractor  *Extractor
	validator  *Validator
	summarizer *Summarizer
	cfg        common.PipelineConfig
	logger     *slog.Logger
}

func New(acquirer *acquire.Acquirer, extractor *Extractor, validator *Validator, summarizer *Summarizer, cfg common.PipelineConfig, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		acquirer:   acquirer,
		extractor:  extractor,
		validator:  validator,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// RunText processes already-digital report text. Oracle and schema failures
// degrade to an unprocessed result; RunText itself never errors.
func (p *Pipeline) RunText(ctx context.Context, text string) report.PipelineResult {
	blob := acquire.FromText(text)
	return p.run(ctx, blob)
}

// RunDocument processes raw document bytes. Acquisition failures are the
// caller's problem and propagate as errors; everything downstream of a
// successful acquisition degrades to an unprocessed result instead.
func (p *Pipeline) RunDocument(ctx context.Context, data []byte, mediaType string) (report.PipelineResult, error) {
	blob, err := p.acquirer.FromDocument(ctx, data, mediaType)
	if err != nil {
		return report.PipelineResult{}, err
	}
	if blob.Confidence < p.cfg.OCRRejectThreshold {
		p.logger.Warn("pipeline.ocr_rejected",
			"req_id", common.RequestIDFromContext(ctx),
			"confidence", blob.Confidence,
			"threshold", p.cfg.OCRRejectThreshold,
		)
		return report.Unprocessed(fmt.Sprintf("OCR confidence too low: %.2f", blob.Confidence)), nil
	}
	if blob.Confidence < p.cfg.OCRConfidenceThreshold {
		p.logger.Warn("pipeline.ocr_low_confidence",
			"req_id", common.RequestIDFromContext(ctx),
			"confidence", blob.Confidence,
			"threshold", p.cfg.OCRConfidenceThreshold,
		)
	}
	return p.run(ctx, blob), nil
}

func (p *Pipeline) run(ctx context.Context, blob acquire.TextBlob) report.PipelineResult {
	rid := common.RequestIDFromContext(ctx)

	ext, err := p.extractor.Extract(ctx, blob.RawText)
	if err != nil {
		p.logger.Error("pipeline.extract_failed", "req_id", rid, "error", err)
		return report.Unprocessed(fmt.Sprintf("extraction failed: %v", err))
	}

	outcome := p.validator.Validate(ctx, blob.RawText, ext.Tests)
	if outcome.IsRejected() {
		return report.Unprocessed(outcome.Reason)
	}

	sum, err := p.summarizer.Summarize(ctx, outcome.Tests)
	if err != nil {
		p.logger.Error("pipeline.summarize_failed", "req_id", rid, "error", err)
		return report.Unprocessed(fmt.Sprintf("summarization failed: %v", err))
	}

	p.logger.Info("pipeline.ok",
		"req_id", rid,
		"tests", len(outcome.Tests),
		"validation_confidence", outcome.Confidence,
	)
	return report.OK(outcome.Tests, sum.Summary, sum.Explanations)
}

// The staged entry points below run a single stage in isolation. They back
// the debug endpoints and CLIs; the request path uses RunText/RunDocument.

func (p *Pipeline) Acquire(ctx context.Context, data []byte, mediaType string) (acquire.TextBlob, error) {
	return p.acquirer.FromDocument(ctx, data, mediaType)
}

func (p *Pipeline) ExtractOnly(ctx context.Context, text string) (report.ExtractionResult, error) {
	return p.extractor.Extract(ctx, text)
}

func (p *Pipeline) ValidateOnly(ctx context.Context, text string, tests []report.TestRecord) report.ValidationOutcome {
	return p.validator.Validate(ctx, text, tests)
}

func (p *Pipeline) SummarizeOnly(ctx context.Context, tests []report.TestRecord) (report.SummaryResult, error) {
	return p.summarizer.Summarize(ctx, tests)
}
