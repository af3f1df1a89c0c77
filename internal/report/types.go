// Package report holds the domain types that cross stage boundaries. All of
// them are request-scoped values; nothing here survives a pipeline
// invocation.
package report

import "github.com/medreport-ai/simplifier/constants"

// RefRange is the normal interval for a test.
type RefRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// TestRecord is one admitted result. Records are immutable after admission;
// a bad candidate is dropped, never repaired.
type TestRecord struct {
	Name     string               `json:"name"`
	Value    float64              `json:"value"`
	Unit     string               `json:"unit"`
	Status   constants.TestStatus `json:"status"`
	RefRange RefRange             `json:"ref_range"`
}

// ExtractionResult is the extraction stage's output, consumed read-only by
// validation.
type ExtractionResult struct {
	Tests                   []TestRecord `json:"tests"`
	NormalizationConfidence float64      `json:"normalization_confidence"`
}

// ValidationOutcome gates the extracted records. Once Status is unprocessed
// the outcome is terminal: no further stage runs.
type ValidationOutcome struct {
	Status     constants.PipelineStatus `json:"status"`
	Tests      []TestRecord             `json:"tests,omitempty"`
	Reason     string                   `json:"reason,omitempty"`
	Confidence float64                  `json:"confidence"`
}

// Accept carries the original, pre-validation records forward unchanged.
func Accept(tests []TestRecord, confidence float64) ValidationOutcome {
	return ValidationOutcome{Status: constants.StatusOK, Tests: tests, Confidence: confidence}
}

func Reject(reason string, confidence float64) ValidationOutcome {
	return ValidationOutcome{Status: constants.StatusUnprocessed, Reason: reason, Confidence: confidence}
}

func (o ValidationOutcome) IsRejected() bool {
	return o.Status != constants.StatusOK
}

// Explanation is a patient-readable note keyed to a TestRecord by name. The
// reference is by value only; no ownership.
type Explanation struct {
	Text     string `json:"text"`
	TestName string `json:"test_name"`
}

// SummaryResult is the summarization stage's output.
type SummaryResult struct {
	Summary      string        `json:"summary"`
	Explanations []Explanation `json:"explanations"`
}

// PipelineResult is the only value exposed across the system boundary. It
// serializes to exactly one of the ok / unprocessed shapes.
type PipelineResult struct {
	Status       constants.PipelineStatus `json:"status"`
	Tests        []TestRecord             `json:"tests,omitempty"`
	Summary      string                   `json:"summary,omitempty"`
	Explanations []Explanation            `json:"explanations,omitempty"`
	Reason       string                   `json:"reason,omitempty"`
}

func OK(tests []TestRecord, summary string, explanations []Explanation) PipelineResult {
	return PipelineResult{
		Status:       constants.StatusOK,
		Tests:        tests,
		Summary:      summary,
		Explanations: explanations,
	}
}

func Unprocessed(reason string) PipelineResult {
	return PipelineResult{Status: constants.StatusUnprocessed, Reason: reason}
}
