package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/medreport-ai/simplifier/constants"
	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/oracle"
	"github.com/medreport-ai/simplifier/internal/report"
)

// scriptedClient returns completions in order, one per Complete call.
type scriptedClient struct {
	completions []string
	err         error
	calls       int
	prompts     []string
}

func (s *scriptedClient) Complete(_ context.Context, prompt string, _ oracle.Options) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.calls > len(s.completions) {
		return "", fmt.Errorf("scriptedClient: unexpected call %d", s.calls)
	}
	return s.completions[s.calls-1], nil
}

func testOracleConfig() common.OracleConfig {
	return common.OracleConfig{MaxTokens: 2048, Temperature: 0.1}
}

func TestExtractor(t *testing.T) {
	t.Run("admits complete records and drops the rest", func(t *testing.T) {
		sc := &scriptedClient{completions: []string{`{
			"tests": [
				{"name": "Hemoglobin", "value": 8.5, "unit": "g/dL", "status": "low", "ref_range": {"low": 12.0, "high": 16.0}},
				{"name": "WBC"}
			],
			"normalization_confidence": 0.92
		}`}}
		ex := NewExtractor(sc, testOracleConfig(), nil)

		res, err := ex.Extract(context.Background(), "Hb 8.5 g/dL")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []report.TestRecord{{
			Name:     "Hemoglobin",
			Value:    8.5,
			Unit:     "g/dL",
			Status:   constants.TestLow,
			RefRange: report.RefRange{Low: 12.0, High: 16.0},
		}}
		if diff := cmp.Diff(want, res.Tests); diff != "" {
			t.Errorf("tests mismatch (-want +got):\n%s", diff)
		}
		if res.NormalizationConfidence != 0.92 {
			t.Errorf("normalization confidence = %v, want 0.92", res.NormalizationConfidence)
		}
	})

	t.Run("defaults normalization confidence when omitted", func(t *testing.T) {
		sc := &scriptedClient{completions: []string{`{"tests": []}`}}
		ex := NewExtractor(sc, testOracleConfig(), nil)

		res, err := ex.Extract(context.Background(), "nothing here")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.NormalizationConfidence != defaultNormalizationConfidence {
			t.Errorf("normalization confidence = %v, want %v", res.NormalizationConfidence, defaultNormalizationConfidence)
		}
		if len(res.Tests) != 0 {
			t.Errorf("tests = %v, want none", res.Tests)
		}
	})

	t.Run("missing tests key is a schema error", func(t *testing.T) {
		sc := &scriptedClient{completions: []string{`{"normalization_confidence": 0.9}`}}
		ex := NewExtractor(sc, testOracleConfig(), nil)

		_, err := ex.Extract(context.Background(), "text")
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})

	t.Run("transport error surfaces as ErrOracle", func(t *testing.T) {
		sc := &scriptedClient{err: fmt.Errorf("connection refused")}
		ex := NewExtractor(sc, testOracleConfig(), nil)

		_, err := ex.Extract(context.Background(), "text")
		if !errors.Is(err, common.ErrOracle) {
			t.Fatalf("err = %v, want ErrOracle", err)
		}
	})

	t.Run("prose around the object still parses", func(t *testing.T) {
		sc := &scriptedClient{completions: []string{"Here you go:\n" + `{"tests": []}` + "\nHope that helps!"}}
		ex := NewExtractor(sc, testOracleConfig(), nil)

		if _, err := ex.Extract(context.Background(), "text"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
