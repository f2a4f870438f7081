package ports

import (
	"context"
	"time"

	"SMMAgent/internal/domain"
)

// PostRepository persists posts and guards their status transitions.
type PostRepository interface {
	CreatePost(ctx context.Context, post domain.NewPost) (int64, error)
	GetPost(ctx context.Context, id int64) (domain.Post, error)
	// SetStatus moves id from `from` to `to` and reports whether a row changed.
	SetStatus(ctx context.Context, id int64, from, to domain.Status, at time.Time) (bool, error)
	// UpdateContent replaces the content of a draft; non-drafts are left alone.
	UpdateContent(ctx context.Context, id int64, content string) (bool, error)
	SetMessageRef(ctx context.Context, id int64, slot domain.MessageSlot, ref int64) error
	ListApproved(ctx context.Context, date string) ([]domain.Post, error)
	ListDrafts(ctx context.Context) ([]domain.Post, error)
	CountByStatus(ctx context.Context) (domain.StatusCounts, error)
	RecentPublished(ctx context.Context, projectID string, limit int) ([]domain.Post, error)
	PublishedSince(ctx context.Context, since time.Time) ([]domain.Post, error)
}

// ProjectRepository mirrors the configured catalog into storage.
type ProjectRepository interface {
	UpsertProject(ctx context.Context, project domain.Project) error
	ActiveProjects(ctx context.Context) ([]string, error)
}

// TrendRepository stores daily trend picks.
type TrendRepository interface {
	SaveTrend(ctx context.Context, trend domain.Trend) (int64, error)
	TrendsOn(ctx context.Context, date string) ([]domain.Trend, error)
}

// CompetitorRepository stores competitor snapshots.
type CompetitorRepository interface {
	SaveCompetitorInsight(ctx context.Context, insight domain.CompetitorInsight) (int64, error)
	LatestCompetitorInsight(ctx context.Context) (domain.CompetitorInsight, error)
}

// KnowledgeRepository is the knowledge base fed back into generation.
type KnowledgeRepository interface {
	AddInsight(ctx context.Context, insight domain.KnowledgeInsight) (int64, error)
	// Insights returns insights for projectID plus global ones, newest first.
	Insights(ctx context.Context, projectID string, limit int) ([]domain.KnowledgeInsight, error)
}

// ReportRepository stores weekly reports.
type ReportRepository interface {
	SaveReport(ctx context.Context, report domain.Report) (int64, error)
	LatestReport(ctx context.Context) (domain.Report, error)
}

// FeedSource pulls items from every feed configured for a group.
type FeedSource interface {
	FetchGroup(ctx context.Context, group string) ([]domain.FeedItem, error)
}

// LLM answers prompts, falling back across providers.
type LLM interface {
	Complete(ctx context.Context, prompt domain.Prompt) (domain.Completion, error)
	// CompleteJSON decodes the first JSON object of the answer into v.
	CompleteJSON(ctx context.Context, prompt domain.Prompt, v any) (domain.Completion, error)
}

// Illustrator produces an optional image for a draft.
type Illustrator interface {
	Illustrate(ctx context.Context, projectName, content string) ([]byte, error)
}

// ChannelPublisher delivers post content to the public channel.
type ChannelPublisher interface {
	Publish(ctx context.Context, post domain.Post) (int64, error)
}

// AdminNotifier pushes plain messages to the administrator.
type AdminNotifier interface {
	Notify(ctx context.Context, text string) error
}

// ModerationBoard renders draft cards for the administrator.
type ModerationBoard interface {
	// ShowDraft sends a new card and returns its message reference.
	ShowDraft(ctx context.Context, post domain.Post, image []byte) (int64, error)
	// RefreshCard redraws an existing card to reflect the post's current state.
	RefreshCard(ctx context.Context, post domain.Post, cardRef int64) error
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Schedule(id, spec string, job func(time.Time)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Recorder receives operational measurements.
type Recorder interface {
	JobFinished(job, outcome string, took time.Duration)
	PostTransition(from, to domain.Status)
	Completion(provider, outcome string)
}
