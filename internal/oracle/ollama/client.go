// Package ollama implements the oracle contract against a local Ollama
// server's /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medreport-ai/simplifier/internal/oracle"
)

// Config for the Ollama client.
type Config struct {
	BaseURL string        // default http://localhost:11434
	Model   string        // e.g., "llama3.2:latest"
	Timeout time.Duration // per-call transport timeout; generative calls on large inputs are slow
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2:latest"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Complete implements oracle.Client with a single non-streaming generate call.
func (c *Client) Complete(ctx context.Context, prompt string, opts oracle.Options) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	body := map[string]any{
		"model":  c.cfg.Model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
		},
	}
	if opts.JSONMode {
		body["format"] = "json"
	}

	c.logger.Info("ollama.generate.start",
		"req_id", rid, "model", c.cfg.Model, "prompt_len", len(prompt), "json_mode", opts.JSONMode)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/generate"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("ollama.generate.http_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}

	var gr struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &gr); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	text := strings.TrimSpace(gr.Response)
	if text == "" {
		return "", fmt.Errorf("empty completion from ollama")
	}

	c.logger.Info("ollama.generate.ok",
		"req_id", rid, "completion_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Warn("ollama response body close error", "error", err)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
