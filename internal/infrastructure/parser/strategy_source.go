package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"SMMAgent/internal/config"
	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
	"SMMAgent/internal/scanner"
)

// StrategySource implements FeedSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	feeds    []config.FeedConfig
	logger   *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined feeds.
func NewStrategySource(reg *scanner.Registry, feeds []config.FeedConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		feeds:    feeds,
		logger:   log,
	}
}

// FetchGroup scans every endpoint of the group's feeds. A failing endpoint is
// logged and skipped; the call fails only when every endpoint failed.
func (s *StrategySource) FetchGroup(ctx context.Context, group string) ([]domain.FeedItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	var (
		aggregated []domain.FeedItem
		errs       []error
		attempted  int
	)
	for _, feed := range s.feeds {
		if feed.Group != group {
			continue
		}

		strategy, err := s.registry.Resolve(feed.Scanner)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", feed.Name, err)
		}

		for _, ep := range feed.Endpoints {
			if err := ctx.Err(); err != nil {
				return aggregated, err
			}
			attempted++

			results, err := strategy.Scan(ctx, scanner.Request{
				FeedName: feed.Name,
				Endpoint: scanner.Endpoint{Name: ep.Name, URL: ep.URL},
				Options:  feed.Options,
			})
			if err != nil {
				s.warn("endpoint failed", "feed", feed.Name, "endpoint", ep.Name, "error", err)
				errs = append(errs, fmt.Errorf("%s/%s: %w", feed.Name, ep.Name, err))
				continue
			}

			for i := range results {
				if results[i].Source == "" {
					results[i].Source = feed.Name
				}
			}
			s.debug("endpoint produced items", "feed", feed.Name, "endpoint", ep.Name, "count", len(results))
			aggregated = append(aggregated, results...)
		}
	}

	if attempted == 0 {
		return nil, fmt.Errorf("no feeds configured for group %s", group)
	}
	if len(errs) == attempted {
		return nil, fmt.Errorf("all %s feeds failed: %w", group, errors.Join(errs...))
	}

	s.debug("strategy source done", "group", group, "items", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
