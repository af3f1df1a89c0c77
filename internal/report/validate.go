package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/medreport-ai/simplifier/internal/common"
)

// ValidateAgainstSchema validates "data" against "schemaMap". A document
// that fails validation is an ErrSchema; compiler problems are plain errors.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSchema, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrSchema, err)
	}
	return nil
}
