package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medreport-ai/simplifier/internal/common"
)

// jsonDirective is appended to every prompt. Providers still leak prose
// around the object often enough that ExtractJSONObject exists.
const jsonDirective = "\n\nYou must respond with valid JSON only. Do not include any explanatory text outside the JSON."

// CompleteJSON invokes the client in JSON mode and parses the first balanced
// object out of the completion. It returns the parsed object and the exact
// byte range that parsed, so callers can re-validate those bytes against a
// schema. Transport failures map to ErrOracle, unparsable completions to
// ErrOracleFormat; there is no retry and no best-effort parsing beyond the
// single brace-repair heuristic.
func CompleteJSON(ctx context.Context, c Client, prompt string, opts Options, logger *slog.Logger) (map[string]any, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts.JSONMode = true

	rid := uuid.New().String()
	start := time.Now()
	logger.Info("oracle.complete.start", "req_id", rid, "prompt_len", len(prompt))

	text, err := c.Complete(ctx, prompt+jsonDirective, opts)
	if err != nil {
		logger.Error("oracle.complete.transport_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, fmt.Errorf("%w: %w", common.ErrOracle, err)
	}

	obj, raw, err := ExtractJSONObject(text)
	if err != nil {
		logger.Error("oracle.complete.format_error",
			"req_id", rid, "error", err, "completion_len", len(text),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}

	logger.Info("oracle.complete.ok",
		"req_id", rid, "json_bytes", len(raw), "elapsed_ms", time.Since(start).Milliseconds())
	return obj, raw, nil
}

// ExtractJSONObject locates the substring from the first '{' to the last '}'
// inclusive and parses it. Surrounding prose is discarded; anything short of
// one parsable object is ErrOracleFormat.
func ExtractJSONObject(s string) (map[string]any, []byte, error) {
	startIdx := strings.Index(s, "{")
	endIdx := strings.LastIndex(s, "}")
	if startIdx == -1 || endIdx == -1 || endIdx < startIdx {
		return nil, nil, fmt.Errorf("%w: no object delimiters in completion", common.ErrOracleFormat)
	}

	raw := []byte(s[startIdx : endIdx+1])
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrOracleFormat, err)
	}
	return obj, raw, nil
}
