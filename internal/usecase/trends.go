package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// TrendWatchDeps wires the trend monitor.
type TrendWatchDeps struct {
	Feeds   ports.FeedSource
	LLM     ports.LLM
	Trends  ports.TrendRepository
	Catalog *domain.Catalog
	Group   string
	Logger  *slog.Logger
	Now     func() time.Time
}

// TrendWatch turns trend feeds into one trend pick per project.
type TrendWatch struct {
	feeds   ports.FeedSource
	llm     ports.LLM
	trends  ports.TrendRepository
	catalog *domain.Catalog
	group   string
	logger  *slog.Logger
	now     func() time.Time
}

type trendPick struct {
	Trend    string `json:"trend"`
	Idea     string `json:"idea"`
	Category string `json:"category"`
}

// NewTrendWatch constructs the trend monitor.
func NewTrendWatch(deps TrendWatchDeps) *TrendWatch {
	w := &TrendWatch{
		feeds:   deps.Feeds,
		llm:     deps.LLM,
		trends:  deps.Trends,
		catalog: deps.Catalog,
		group:   deps.Group,
		logger:  deps.Logger,
		now:     deps.Now,
	}
	if w.group == "" {
		w.group = "trends"
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Run fetches headlines, asks the model for picks and stores them for today.
func (w *TrendWatch) Run(ctx context.Context) ([]domain.Trend, error) {
	items, err := w.feeds.FetchGroup(ctx, w.group)
	if err != nil {
		return nil, fmt.Errorf("fetch trends: %w", err)
	}

	titles := headlines(items, trendLimit)
	if len(titles) == 0 {
		return nil, fmt.Errorf("no trends fetched")
	}
	w.logger.Info("trend headlines collected", "count", len(titles))

	projects := w.catalog.Projects()
	picks := map[string]trendPick{}
	completion, err := w.llm.CompleteJSON(ctx, trendPrompt(titles, projects), &picks)
	if err != nil {
		return nil, fmt.Errorf("analyse trends: %w", err)
	}
	if len(picks) == 0 {
		return nil, fmt.Errorf("trend analysis is empty")
	}

	today := domain.Day(w.now())
	raw := strings.Join(titles, "\n")

	var saved []domain.Trend
	for _, p := range projects {
		pick := picks[p.ID]
		trend := domain.Trend{
			Date:      today,
			ProjectID: p.ID,
			Trend:     pick.Trend,
			Idea:      pick.Idea,
			Category:  pick.Category,
			RawTrends: raw,
		}
		id, err := w.trends.SaveTrend(ctx, trend)
		if err != nil {
			return saved, fmt.Errorf("save trend for %s: %w", p.ID, err)
		}
		trend.ID = id
		saved = append(saved, trend)
	}

	w.logger.Info("trends saved", "projects", len(saved), "provider", completion.Provider)
	return saved, nil
}

// headlines de-duplicates titles preserving order and drops very short ones.
func headlines(items []domain.FeedItem, limit int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, it := range items {
		title := strings.TrimSpace(it.Title)
		if utf8.RuneCountInString(title) <= 3 {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
