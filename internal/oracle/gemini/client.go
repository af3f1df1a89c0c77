// Package gemini implements the oracle contract with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/medreport-ai/simplifier/internal/oracle"
)

// Config for the Gemini client.
type Config struct {
	APIKey string // if empty, falls back to env GEMINI_API_KEY
	Model  string // e.g., "gemini-2.5-flash-lite"
}

type Client struct {
	cfg    Config
	client *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}
	if logger == nil {
		logger = slog.Default()
	}

	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{cfg: cfg, client: cl, logger: logger}, nil
}

// Complete implements oracle.Client with a single GenerateContent call.
func (c *Client) Complete(ctx context.Context, prompt string, opts oracle.Options) (string, error) {
	start := time.Now()

	gcfg := &genai.GenerateContentConfig{}
	if opts.JSONMode {
		gcfg.ResponseMIMEType = "application/json"
	}
	temp := opts.Temperature
	gcfg.Temperature = &temp
	if opts.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}

	result, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, contents, gcfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned empty completion")
	}

	c.logger.Info("gemini.generate.ok",
		"model", c.cfg.Model, "completion_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}
