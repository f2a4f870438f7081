package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

const competitorPromptPosts = 20

// CompetitorWatchDeps wires the competitor monitor.
type CompetitorWatchDeps struct {
	Feeds       ports.FeedSource
	LLM         ports.LLM
	Competitors ports.CompetitorRepository
	Group       string
	Logger      *slog.Logger
	Now         func() time.Time
}

// CompetitorWatch summarises competitor channels into a stored insight.
type CompetitorWatch struct {
	feeds       ports.FeedSource
	llm         ports.LLM
	competitors ports.CompetitorRepository
	group       string
	logger      *slog.Logger
	now         func() time.Time
}

// NewCompetitorWatch constructs the competitor monitor.
func NewCompetitorWatch(deps CompetitorWatchDeps) *CompetitorWatch {
	w := &CompetitorWatch{
		feeds:       deps.Feeds,
		llm:         deps.LLM,
		competitors: deps.Competitors,
		group:       deps.Group,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if w.group == "" {
		w.group = "competitors"
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Run fetches competitor posts, asks the model for an analysis and stores it.
func (w *CompetitorWatch) Run(ctx context.Context) (domain.CompetitorInsight, error) {
	items, err := w.feeds.FetchGroup(ctx, w.group)
	if err != nil {
		return domain.CompetitorInsight{}, fmt.Errorf("fetch competitors: %w", err)
	}
	if len(items) == 0 {
		return domain.CompetitorInsight{}, fmt.Errorf("no competitor data")
	}

	posts := formatCompetitorPosts(items, competitorPromptPosts)

	var analysis domain.CompetitorAnalysis
	completion, err := w.llm.CompleteJSON(ctx, competitorPrompt(len(items), posts), &analysis)
	if err != nil {
		return domain.CompetitorInsight{}, fmt.Errorf("analyse competitors: %w", err)
	}
	if analysis.Empty() {
		return domain.CompetitorInsight{}, fmt.Errorf("competitor analysis is empty")
	}

	insight := domain.CompetitorInsight{
		Date:     domain.Day(w.now()),
		Analysis: analysis,
		RawData:  posts,
	}
	insight.ID, err = w.competitors.SaveCompetitorInsight(ctx, insight)
	if err != nil {
		return domain.CompetitorInsight{}, fmt.Errorf("save competitor insight: %w", err)
	}

	w.logger.Info("competitor insight saved", "id", insight.ID, "posts", len(items), "provider", completion.Provider)
	return insight, nil
}

// Latest returns the most recent stored analysis.
func (w *CompetitorWatch) Latest(ctx context.Context) (domain.CompetitorInsight, error) {
	return w.competitors.LatestCompetitorInsight(ctx)
}

func formatCompetitorPosts(items []domain.FeedItem, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		line := fmt.Sprintf("@%s %s", it.Source, it.Title)
		if it.Description != "" {
			line += ": " + it.Description
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, "\n---\n")
}
