package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"SMMAgent/internal/config"
	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// Completion outcomes as recorded in metrics.
const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	outcomeEmpty   = "empty"
	outcomeBadJSON = "bad_json"
)

// Provider is one model endpoint in the fallback chain.
type Provider interface {
	Name() string
	Complete(ctx context.Context, p domain.Prompt) (string, error)
}

// Chain tries providers in order until one answers.
type Chain struct {
	providers []Provider
	recorder  ports.Recorder
	logger    *slog.Logger
}

var _ ports.LLM = (*Chain)(nil)

// NewChain wraps providers; order is priority.
func NewChain(providers []Provider, recorder ports.Recorder, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, recorder: recorder, logger: logger.With("component", "llm")}
}

// Build constructs providers from configuration, skipping those without an API key.
func Build(ctx context.Context, cfgs []config.ProviderConfig, recorder ports.Recorder, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	for _, cfg := range cfgs {
		if cfg.APIKey == "" {
			logger.Info("llm provider disabled, no api key", "provider", cfg.Name)
			continue
		}
		p, err := NewProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no llm provider has an api key")
	}

	return NewChain(providers, recorder, logger), nil
}

// NewProvider builds the client matching cfg.Kind.
func NewProvider(ctx context.Context, cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Kind {
	case config.KindOpenAI:
		return NewOpenAIClient(cfg), nil
	case config.KindAnthropic:
		return NewAnthropicClient(cfg), nil
	case config.KindGemini:
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("provider %s: unknown kind %q", cfg.Name, cfg.Kind)
	}
}

// Names lists the providers in priority order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Complete returns the first non-empty answer.
func (c *Chain) Complete(ctx context.Context, p domain.Prompt) (domain.Completion, error) {
	return c.run(ctx, p, nil)
}

// CompleteJSON decodes the first answer that holds valid JSON into v, which
// must be a non-nil pointer. A provider whose answer does not decode counts as
// failed and leaves v untouched.
func (c *Chain) CompleteJSON(ctx context.Context, p domain.Prompt, v any) (domain.Completion, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return domain.Completion{}, fmt.Errorf("decode target must be a non-nil pointer, got %T", v)
	}

	return c.run(ctx, p, func(text string) error {
		fresh := reflect.New(rv.Elem().Type())
		if err := DecodeJSON(text, fresh.Interface()); err != nil {
			return err
		}
		rv.Elem().Set(fresh.Elem())
		return nil
	})
}

func (c *Chain) run(ctx context.Context, p domain.Prompt, accept func(string) error) (domain.Completion, error) {
	if len(c.providers) == 0 {
		return domain.Completion{}, fmt.Errorf("no llm providers configured")
	}

	var errs []error
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			return domain.Completion{}, err
		}

		name := provider.Name()
		text, err := provider.Complete(ctx, p)
		switch {
		case err != nil:
			c.record(name, outcomeError)
		case strings.TrimSpace(text) == "":
			err = fmt.Errorf("%s returned an empty answer", name)
			c.record(name, outcomeEmpty)
		case accept != nil:
			if jerr := accept(text); jerr != nil {
				err = fmt.Errorf("%s: %w", name, jerr)
				c.record(name, outcomeBadJSON)
			}
		}

		if err == nil {
			c.record(name, outcomeOK)
			return domain.Completion{Text: text, Provider: name}, nil
		}

		c.logger.Warn("llm provider failed, falling back", "provider", name, "error", err)
		errs = append(errs, err)
	}

	return domain.Completion{}, fmt.Errorf("all llm providers failed: %w", errors.Join(errs...))
}

func (c *Chain) record(provider, outcome string) {
	if c.recorder != nil {
		c.recorder.Completion(provider, outcome)
	}
}
