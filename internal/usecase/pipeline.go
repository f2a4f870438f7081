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

// Job ids.
const (
	JobCompetitors = "competitors"
	JobTrends      = "trends"
	JobGenerate    = "generate"
	JobPublish     = "publish"
	JobWeekly      = "report"
)

// JobIDs lists every job in daily order.
var JobIDs = []string{JobCompetitors, JobTrends, JobGenerate, JobPublish, JobWeekly}

// PipelineDeps wires the workflows that make up the daily content pipeline.
type PipelineDeps struct {
	Competitors *CompetitorWatch
	Trends      *TrendWatch
	Generator   *Generator
	Publisher   *Publisher
	Reporter    *WeeklyReporter
	Notifier    ports.AdminNotifier
	Catalog     *domain.Catalog
	Logger      *slog.Logger
	Now         func() time.Time
}

// Pipeline turns the workflows into scheduler jobs that report to the administrator.
type Pipeline struct {
	competitors *CompetitorWatch
	trends      *TrendWatch
	generator   *Generator
	publisher   *Publisher
	reporter    *WeeklyReporter
	notifier    ports.AdminNotifier
	catalog     *domain.Catalog
	logger      *slog.Logger
	now         func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		competitors: deps.Competitors,
		trends:      deps.Trends,
		generator:   deps.Generator,
		publisher:   deps.Publisher,
		reporter:    deps.Reporter,
		notifier:    deps.Notifier,
		catalog:     deps.Catalog,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Jobs returns the five jobs with schedules taken from specs.
func (p *Pipeline) Jobs(specs map[string]string) []Job {
	bodies := map[string]func(context.Context) (string, error){
		JobCompetitors: p.RunCompetitors,
		JobTrends:      p.RunTrends,
		JobGenerate:    p.RunGenerate,
		JobPublish:     p.RunPublish,
		JobWeekly:      p.RunReport,
	}

	jobs := make([]Job, 0, len(JobIDs))
	for _, id := range JobIDs {
		jobs = append(jobs, Job{ID: id, Spec: specs[id], Run: bodies[id]})
	}
	return jobs
}

// RunCompetitors runs the competitor watch and sends the analysis.
func (p *Pipeline) RunCompetitors(ctx context.Context) (string, error) {
	insight, err := p.competitors.Run(ctx)
	if err != nil {
		return "", err
	}
	p.notify(ctx, FormatCompetitorInsight(insight))
	return fmt.Sprintf("competitor insight #%d", insight.ID), nil
}

// RunTrends runs the trend watch and sends the picks.
func (p *Pipeline) RunTrends(ctx context.Context) (string, error) {
	trends, err := p.trends.Run(ctx)
	if err != nil {
		return "", err
	}
	p.notify(ctx, FormatTrends(trends, p.catalog))
	return fmt.Sprintf("%d trends saved", len(trends)), nil
}

// RunGenerate drafts posts for every project; each draft reaches the
// administrator as a moderation card.
func (p *Pipeline) RunGenerate(ctx context.Context) (string, error) {
	posts, err := p.generator.Generate(ctx, "", "")
	if err != nil {
		return "", err
	}
	if len(posts) == 0 {
		return "", fmt.Errorf("no drafts generated")
	}
	return fmt.Sprintf("%d drafts generated", len(posts)), nil
}

// RunPublish sweeps today's approved posts.
func (p *Pipeline) RunPublish(ctx context.Context) (string, error) {
	res, err := p.publisher.Sweep(ctx, domain.Day(p.now()))
	if err != nil {
		return "", err
	}
	if len(res.Published)+len(res.Failed) > 0 {
		p.notify(ctx, FormatSweep(res))
	}
	return fmt.Sprintf("%d published, %d failed", len(res.Published), len(res.Failed)), nil
}

// RunReport builds the weekly report and sends it.
func (p *Pipeline) RunReport(ctx context.Context) (string, error) {
	report, err := p.reporter.Run(ctx)
	if err != nil {
		return "", err
	}
	p.notify(ctx, FormatReport(report.Report))
	return fmt.Sprintf("report #%d, %d posts, %d new insights", report.Report.ID, report.TotalPosts, report.NewInsights), nil
}

func (p *Pipeline) notify(ctx context.Context, text string) {
	if p.notifier == nil || text == "" {
		return
	}
	if err := p.notifier.Notify(ctx, text); err != nil {
		p.logger.Warn("notify admin", "error", err)
	}
}

// FormatTrends renders trend picks for the administrator.
func FormatTrends(trends []domain.Trend, catalog *domain.Catalog) string {
	if len(trends) == 0 {
		return "No trends for today yet. Run /trends."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📈 Trends for %s\n", trends[0].Date)
	for _, t := range trends {
		name := t.ProjectID
		if catalog != nil {
			name = catalog.Name(t.ProjectID)
		}
		trend := t.Trend
		if trend == "" {
			trend = "no trend"
		}
		fmt.Fprintf(&b, "\n%s: %s\n", name, trend)
		if t.Idea != "" {
			fmt.Fprintf(&b, "💡 %s\n", t.Idea)
		}
	}
	return b.String()
}

// FormatCompetitorInsight renders a competitor analysis for the administrator.
func FormatCompetitorInsight(in domain.CompetitorInsight) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Competitor analysis for %s\n", in.Date)

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, it := range items {
			fmt.Fprintf(&b, "• %s\n", it)
		}
	}
	section("Hot topics", in.Analysis.HotTopics)
	section("Content gaps", in.Analysis.ContentGaps)
	section("Best formats", in.Analysis.BestFormats)
	section("Our opportunities", in.Analysis.Opportunities)

	if in.Analysis.UrgentAlert != "" {
		fmt.Fprintf(&b, "\n🚨 %s\n", in.Analysis.UrgentAlert)
	}
	return b.String()
}

// FormatSweep renders a publish sweep result.
func FormatSweep(res SweepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📤 Published: %d", len(res.Published))
	for _, id := range res.Published {
		fmt.Fprintf(&b, " #%d", id)
	}
	if len(res.Failed) > 0 {
		fmt.Fprintf(&b, "\n❌ Failed: %d", len(res.Failed))
		for _, id := range res.Failed {
			fmt.Fprintf(&b, " #%d", id)
		}
	}
	return b.String()
}

// FormatReport renders a weekly report.
func FormatReport(r domain.Report) string {
	return fmt.Sprintf("📊 Weekly report %s to %s\n\n%s", r.WeekStart, r.WeekEnd, r.Content)
}

// FormatCounts renders post counts per status.
func FormatCounts(c domain.StatusCounts) string {
	var b strings.Builder
	b.WriteString("📋 Posts\n")
	for _, s := range domain.Statuses {
		fmt.Fprintf(&b, "%s: %d\n", s, c.Count(s))
	}
	fmt.Fprintf(&b, "total: %d", c.Total)
	return b.String()
}
