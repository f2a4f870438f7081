package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"SMMAgent/internal/config"
	"SMMAgent/internal/domain"
	"SMMAgent/internal/infrastructure/httpclient"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient calls the Anthropic messages API.
type AnthropicClient struct {
	name        string
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	http        *httpclient.Client
}

var _ Provider = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.ProviderConfig) *AnthropicClient {
	return &AnthropicClient{
		name:        cfg.Name,
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		http:        httpclient.New(httpclient.Options{Timeout: cfg.Timeout, MaxRetries: 2}),
	}
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Name identifies the provider in logs and metrics.
func (c *AnthropicClient) Name() string { return c.name }

// Complete sends the prompt and joins the text blocks of the answer.
func (c *AnthropicClient) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("%s client misconfigured", c.name)
	}

	maxTokens := pick(p.MaxTokens, c.maxTokens)
	if maxTokens == 0 {
		maxTokens = 2048
	}

	resp, err := c.http.PostJSON(ctx, c.endpoint, map[string]string{
		"X-API-Key":         c.apiKey,
		"Anthropic-Version": anthropicVersion,
	}, messagesRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      p.System,
		Messages:    []chatMessage{{Role: "user", Content: p.User}},
		Temperature: pickFloat(p.Temperature, c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%s request: %w", c.name, err)
	}

	var out messagesResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("%s decode: %w", c.name, err)
	}

	var b strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%s returned no text", c.name)
	}
	return b.String(), nil
}
