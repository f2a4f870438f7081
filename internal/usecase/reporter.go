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

const reportInsights = 10

// WeeklyReporterDeps wires the weekly report.
type WeeklyReporterDeps struct {
	Posts     ports.PostRepository
	Knowledge ports.KnowledgeRepository
	Reports   ports.ReportRepository
	LLM       ports.LLM
	Catalog   *domain.Catalog
	Logger    *slog.Logger
	Now       func() time.Time
}

// WeeklyReporter summarises the last week and grows the knowledge base.
type WeeklyReporter struct {
	posts     ports.PostRepository
	knowledge ports.KnowledgeRepository
	reports   ports.ReportRepository
	llm       ports.LLM
	catalog   *domain.Catalog
	logger    *slog.Logger
	now       func() time.Time
}

// WeeklyReport is the stored report plus what it was built from.
type WeeklyReport struct {
	Report      domain.Report
	TotalPosts  int
	NewInsights int
}

type newInsights struct {
	Items []struct {
		Project  string `json:"project"`
		Type     string `json:"type"`
		Insight  string `json:"insight"`
		Evidence string `json:"evidence"`
	} `json:"new_insights"`
}

// NewWeeklyReporter constructs the reporter.
func NewWeeklyReporter(deps WeeklyReporterDeps) *WeeklyReporter {
	r := &WeeklyReporter{
		posts:     deps.Posts,
		knowledge: deps.Knowledge,
		reports:   deps.Reports,
		llm:       deps.LLM,
		catalog:   deps.Catalog,
		logger:    deps.Logger,
		now:       deps.Now,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Run builds, stores and returns the report for the last seven days.
func (r *WeeklyReporter) Run(ctx context.Context) (WeeklyReport, error) {
	now := r.now()
	since := now.AddDate(0, 0, -7)
	weekStart, weekEnd := domain.Day(since), domain.Day(now)

	posts, err := r.posts.PublishedSince(ctx, since)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("load published posts: %w", err)
	}

	insights, err := r.knowledge.Insights(ctx, "", reportInsights)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("load insights: %w", err)
	}
	current := formatInsights(insights, "empty")

	stats := r.projectStats(posts)
	if stats == "" {
		stats = "No posts were published this week."
	}

	completion, err := r.llm.Complete(ctx, reportPrompt(weekStart, weekEnd, len(posts), stats, current))
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("complete report: %w", err)
	}

	report := domain.Report{WeekStart: weekStart, WeekEnd: weekEnd, Content: strings.TrimSpace(completion.Text)}
	report.ID, err = r.reports.SaveReport(ctx, report)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("save report: %w", err)
	}
	r.logger.Info("weekly report saved", "id", report.ID, "posts", len(posts), "provider", completion.Provider)

	added := r.updateKnowledge(ctx, posts, current)

	return WeeklyReport{Report: report, TotalPosts: len(posts), NewInsights: added}, nil
}

// Latest returns the most recent stored report.
func (r *WeeklyReporter) Latest(ctx context.Context) (domain.Report, error) {
	return r.reports.LatestReport(ctx)
}

func (r *WeeklyReporter) projectStats(posts []domain.Post) string {
	byProject := map[string][]domain.Post{}
	var order []string
	for _, p := range posts {
		if _, ok := byProject[p.ProjectID]; !ok {
			order = append(order, p.ProjectID)
		}
		byProject[p.ProjectID] = append(byProject[p.ProjectID], p)
	}

	var b strings.Builder
	for _, id := range order {
		group := byProject[id]
		fmt.Fprintf(&b, "\n%s: %d posts\n", r.catalog.Name(id), len(group))
		for _, p := range group {
			fmt.Fprintf(&b, "  - [%s] %s...\n", p.Platform, truncateRunes(p.Content, reportChars))
		}
	}
	return b.String()
}

// updateKnowledge appends model-derived lessons; failures never fail the report.
func (r *WeeklyReporter) updateKnowledge(ctx context.Context, posts []domain.Post, current string) int {
	if len(posts) == 0 {
		return 0
	}

	lines := make([]string, 0, len(posts))
	for _, p := range posts {
		lines = append(lines, fmt.Sprintf("[%s] [%s] %s...", p.ProjectID, p.Platform, truncateRunes(p.Content, kbPostChars)))
	}

	var result newInsights
	if _, err := r.llm.CompleteJSON(ctx, knowledgePrompt(strings.Join(lines, "\n"), current), &result); err != nil {
		r.logger.Warn("knowledge base update", "error", err)
		return 0
	}

	added := 0
	for _, item := range result.Items {
		if strings.TrimSpace(item.Insight) == "" {
			continue
		}
		_, err := r.knowledge.AddInsight(ctx, domain.KnowledgeInsight{
			ProjectID: item.Project,
			Type:      item.Type,
			Insight:   item.Insight,
			Evidence:  item.Evidence,
		})
		if err != nil {
			r.logger.Warn("add insight", "error", err)
			continue
		}
		added++
	}

	r.logger.Info("knowledge base updated", "added", added)
	return added
}
