package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/medreport-ai/simplifier/internal/common"
	"github.com/medreport-ai/simplifier/internal/report"
)

func TestSummarizer(t *testing.T) {
	t.Run("empty set short-circuits", func(t *testing.T) {
		sc := &scriptedClient{}
		s := NewSummarizer(sc, testOracleConfig(), nil)

		res, err := s.Summarize(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Summary != emptySummary {
			t.Errorf("summary = %q", res.Summary)
		}
		if res.Explanations == nil || len(res.Explanations) != 0 {
			t.Errorf("explanations = %#v, want empty non-nil slice", res.Explanations)
		}
		if sc.calls != 0 {
			t.Errorf("oracle called %d times, want 0", sc.calls)
		}
	})

	t.Run("returns summary with explanations", func(t *testing.T) {
		sc := &scriptedClient{completions: []string{`{
			"summary": "Most results look normal, but your hemoglobin is a bit low.",
			"explanations": [
				{"text": "Hemoglobin carries oxygen in your blood; a low value can cause tiredness.", "test_name": "Hemoglobin"}
			]
		}`}}
		s := NewSummarizer(sc, testOracleConfig(), nil)

		res, err := s.Summarize(context.Background(), sampleTests())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := report.SummaryResult{
			Summary: "Most results look normal, but your hemoglobin is a bit low.",
			Explanations: []report.Explanation{
				{Text: "Hemoglobin carries oxygen in your blood; a low value can cause tiredness.", TestName: "Hemoglobin"},
			},
		}
		if diff := cmp.Diff(want, res); diff != "" {
			t.Errorf("result mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing explanations key is a schema error", func(t *testing.T) {
		sc := &scriptedClient{completions: []string{`{"summary": "All good."}`}}
		s := NewSummarizer(sc, testOracleConfig(), nil)

		_, err := s.Summarize(context.Background(), sampleTests())
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})

	t.Run("null explanations become an empty slice", func(t *testing.T) {
		sc := &scriptedClient{completions: []string{`{"summary": "All results are within normal limits.", "explanations": []}`}}
		s := NewSummarizer(sc, testOracleConfig(), nil)

		res, err := s.Summarize(context.Background(), sampleTests())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Explanations == nil {
			t.Error("explanations must never be nil on success")
		}
	})
}
