package ml

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"SMMAgent/internal/config"
	"SMMAgent/internal/domain"
	"SMMAgent/internal/infrastructure/httpclient"
	"SMMAgent/internal/ports"
)

const (
	excerptRunes  = 300
	promptTokens  = 150
	defaultWidth  = 1080
	defaultHeight = 1080
)

// Client illustrates drafts: the LLM writes an English image prompt and an
// image generation endpoint renders it.
type Client struct {
	endpoint string
	width    int
	height   int
	llm      ports.LLM
	http     *httpclient.Client
	logger   *slog.Logger
}

var _ ports.Illustrator = (*Client)(nil)

// NewClient creates an illustrator. llm may be nil, in which case a generic
// prompt is used for every draft.
func NewClient(cfg config.IllustratorConfig, llm ports.LLM, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		endpoint: cfg.Endpoint,
		width:    cfg.Width,
		height:   cfg.Height,
		llm:      llm,
		http:     httpclient.New(httpclient.Options{Timeout: 60 * time.Second, MaxRetries: 1}),
		logger:   logger.With("component", "illustrator"),
	}
	if c.width <= 0 {
		c.width = defaultWidth
	}
	if c.height <= 0 {
		c.height = defaultHeight
	}
	return c
}

// Illustrate returns image bytes for the post content.
func (c *Client) Illustrate(ctx context.Context, projectName, content string) ([]byte, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("illustrator endpoint is not configured")
	}

	prompt := c.visualPrompt(ctx, projectName, content)
	c.logger.Info("generating image", "prompt", truncate(prompt, 80))

	resp, err := c.http.Get(ctx, c.imageURL(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	if !strings.HasPrefix(resp.ContentType, "image") {
		return nil, fmt.Errorf("response is not an image (%s)", resp.ContentType)
	}

	c.logger.Info("image generated", "bytes", len(resp.Body))
	return resp.Body, nil
}

func (c *Client) visualPrompt(ctx context.Context, projectName, content string) string {
	fallback := fmt.Sprintf("Modern minimalist business illustration for %s, clean corporate style, blue tones", projectName)
	if c.llm == nil {
		return fallback
	}

	completion, err := c.llm.Complete(ctx, domain.Prompt{
		User:      visualRequest(projectName, content),
		MaxTokens: promptTokens,
	})
	if err != nil {
		c.logger.Warn("image prompt", "error", err)
		return fallback
	}

	prompt := strings.Trim(strings.TrimSpace(completion.Text), `"'`)
	if prompt == "" {
		return fallback
	}
	return prompt
}

func (c *Client) imageURL(prompt string) string {
	q := url.Values{}
	q.Set("width", strconv.Itoa(c.width))
	q.Set("height", strconv.Itoa(c.height))
	q.Set("nologo", "true")
	return c.endpoint + url.PathEscape(prompt) + "?" + q.Encode()
}

func visualRequest(projectName, content string) string {
	var b strings.Builder
	b.WriteString("Write a prompt for an image generator to illustrate a social media post.\n\n")
	fmt.Fprintf(&b, "Brand: %s\n", projectName)
	fmt.Fprintf(&b, "Post text (excerpt): %s\n\n", truncate(content, excerptRunes))
	b.WriteString("Requirements:\n")
	b.WriteString("- English only\n")
	b.WriteString("- Minimalist, modern, business style\n")
	b.WriteString("- No text or lettering in the image\n")
	b.WriteString("- Abstract or thematic visual, corporate colours, clean background\n")
	b.WriteString("- Flat design or 3D render\n\n")
	b.WriteString("Return ONLY the prompt, one or two sentences.")
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
