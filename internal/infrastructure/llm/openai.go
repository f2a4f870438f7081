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

// OpenAIClient talks to OpenAI-compatible chat completion APIs such as Groq.
type OpenAIClient struct {
	name        string
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	http        *httpclient.Client
}

var _ Provider = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.ProviderConfig) *OpenAIClient {
	return &OpenAIClient{
		name:        cfg.Name,
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		http:        httpclient.New(httpclient.Options{Timeout: cfg.Timeout, MaxRetries: 2}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Name identifies the provider in logs and metrics.
func (c *OpenAIClient) Name() string { return c.name }

// Complete sends the prompt as a system/user message pair.
func (c *OpenAIClient) Complete(ctx context.Context, p domain.Prompt) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("%s client misconfigured", c.name)
	}

	var messages []chatMessage
	if strings.TrimSpace(p.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: p.User})

	resp, err := c.http.PostJSON(ctx, c.endpoint, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   pick(p.MaxTokens, c.maxTokens),
		Temperature: pickFloat(p.Temperature, c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%s request: %w", c.name, err)
	}

	var out chatResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("%s decode: %w", c.name, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.name)
	}
	return out.Choices[0].Message.Content, nil
}

func pick(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func pickFloat(v, fallback float64) float64 {
	if v > 0 {
		return v
	}
	return fallback
}
