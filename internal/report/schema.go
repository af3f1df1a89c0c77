package report

// Response envelopes for the three oracle round-trips, as JSON-Schema
// (draft 2020-12 subset) generic maps, teacher-style: validated locally
// against the exact bytes that parsed out of the completion.

// ExtractionResponseSchema requires only the envelope. Record completeness
// is judged by AdmitRecords, not the schema, so a partial candidate gets
// dropped instead of failing the whole stage.
func ExtractionResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tests": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
			"normalization_confidence": confidenceProp(),
		},
		"required": []string{"tests"},
	}
}

// ValidationResponseSchema requires the status verdict; per-record scores
// are optional because older models omit them (the stage then falls back to
// the oracle's own aggregation).
func ValidationResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []string{"ok", "unprocessed"},
			},
			"reason":     map[string]any{"type": "string"},
			"confidence": confidenceProp(),
			"test_validations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"test_name":  map[string]any{"type": "string"},
						"is_valid":   map[string]any{"type": "boolean"},
						"confidence": confidenceProp(),
						"evidence":   map[string]any{"type": "string"},
					},
					"required": []string{"test_name", "confidence"},
				},
			},
		},
		"required": []string{"status"},
	}
}

// SummaryResponseSchema requires summary and explanations. No completeness
// filter applies to explanations; the base data was already validated.
func SummaryResponseSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "minLength": 1},
			"explanations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text":      map[string]any{"type": "string"},
						"test_name": map[string]any{"type": "string"},
					},
				},
			},
		},
		"required": []string{"summary", "explanations"},
	}
}

func confidenceProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
}
