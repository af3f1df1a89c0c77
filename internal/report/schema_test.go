package report

import (
	"errors"
	"testing"

	"github.com/medreport-ai/simplifier/internal/common"
)

func TestValidateAgainstSchema(t *testing.T) {
	t.Run("valid extraction envelope", func(t *testing.T) {
		data := []byte(`{"tests": [{"name": "Glucose"}], "normalization_confidence": 0.9}`)
		if err := ValidateAgainstSchema(ExtractionResponseSchema(), data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing tests key is ErrSchema", func(t *testing.T) {
		err := ValidateAgainstSchema(ExtractionResponseSchema(), []byte(`{"normalization_confidence": 0.9}`))
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})

	t.Run("confidence out of range is ErrSchema", func(t *testing.T) {
		err := ValidateAgainstSchema(ExtractionResponseSchema(), []byte(`{"tests": [], "normalization_confidence": 1.5}`))
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})

	t.Run("validation envelope requires status", func(t *testing.T) {
		err := ValidateAgainstSchema(ValidationResponseSchema(), []byte(`{"confidence": 0.8}`))
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})

	t.Run("validation envelope rejects unknown status", func(t *testing.T) {
		err := ValidateAgainstSchema(ValidationResponseSchema(), []byte(`{"status": "maybe"}`))
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})

	t.Run("validation envelope accepts per-record scores", func(t *testing.T) {
		data := []byte(`{"status": "ok", "confidence": 0.9, "test_validations": [{"test_name": "Hemoglobin", "is_valid": true, "confidence": 0.95, "evidence": "Hb 8.5"}]}`)
		if err := ValidateAgainstSchema(ValidationResponseSchema(), data); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("summary envelope requires explanations", func(t *testing.T) {
		err := ValidateAgainstSchema(SummaryResponseSchema(), []byte(`{"summary": "All good."}`))
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})

	t.Run("not JSON at all is ErrSchema", func(t *testing.T) {
		err := ValidateAgainstSchema(SummaryResponseSchema(), []byte(`not json`))
		if !errors.Is(err, common.ErrSchema) {
			t.Fatalf("err = %v, want ErrSchema", err)
		}
	})
}
