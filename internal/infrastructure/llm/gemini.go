package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"SMMAgent/internal/config"
	"SMMAgent/internal/domain"
)

// GeminiClient calls Google Gemini through the genai SDK.
type GeminiClient struct {
	name        string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	client      *genai.Client
}

var _ Provider = (*GeminiClient)(nil)

// NewGeminiClient creates the SDK client. A non-empty Endpoint overrides the API base URL.
func NewGeminiClient(ctx context.Context, cfg config.ProviderConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: api key is required", cfg.Name)
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%s client: %w", cfg.Name, err)
	}

	return &GeminiClient{
		name:        cfg.Name,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		client:      client,
	}, nil
}

// Name identifies the provider in logs and metrics.
func (c *GeminiClient) Name() string { return c.name }

// Complete generates content for the prompt.
func (c *GeminiClient) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	gc := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(pickFloat(p.Temperature, c.temperature))),
		MaxOutputTokens: int32(pick(p.MaxTokens, c.maxTokens)),
	}
	if strings.TrimSpace(p.System) != "" {
		gc.SystemInstruction = genai.NewContentFromText(p.System, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(p.User), gc)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", c.name, err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil ||
		len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%s returned no candidates", c.name)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
