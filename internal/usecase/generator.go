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

// GeneratorDeps wires the post generator.
type GeneratorDeps struct {
	Posts       ports.PostRepository
	Trends      ports.TrendRepository
	Knowledge   ports.KnowledgeRepository
	LLM         ports.LLM
	Illustrator ports.Illustrator
	Board       ports.ModerationBoard
	Catalog     *domain.Catalog
	Logger      *slog.Logger
	Now         func() time.Time
}

// Generator drafts posts for project/platform targets.
type Generator struct {
	posts       ports.PostRepository
	trends      ports.TrendRepository
	knowledge   ports.KnowledgeRepository
	llm         ports.LLM
	illustrator ports.Illustrator
	board       ports.ModerationBoard
	catalog     *domain.Catalog
	logger      *slog.Logger
	now         func() time.Time
}

// NewGenerator constructs the post generator.
func NewGenerator(deps GeneratorDeps) *Generator {
	g := &Generator{
		posts:       deps.Posts,
		trends:      deps.Trends,
		knowledge:   deps.Knowledge,
		llm:         deps.LLM,
		illustrator: deps.Illustrator,
		board:       deps.Board,
		catalog:     deps.Catalog,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Generate drafts one post per target. Empty projectID means every project;
// empty platform means every platform of the project. A failing target is
// logged and skipped.
func (g *Generator) Generate(ctx context.Context, projectID, platform string) ([]domain.GeneratedPost, error) {
	if projectID != "" {
		if _, ok := g.catalog.Project(projectID); !ok {
			return nil, fmt.Errorf("unknown project %q", projectID)
		}
	}

	targets := g.catalog.Targets(projectID, platform)
	if len(targets) == 0 {
		return nil, fmt.Errorf("nothing to generate")
	}

	today := domain.Day(g.now())
	trendByProject := map[string]domain.Trend{}
	if g.trends != nil {
		trends, err := g.trends.TrendsOn(ctx, today)
		if err != nil {
			g.logger.Warn("load trends", "date", today, "error", err)
		}
		for _, t := range trends {
			if _, ok := trendByProject[t.ProjectID]; !ok {
				trendByProject[t.ProjectID] = t
			}
		}
	}

	var created []domain.GeneratedPost
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		post, err := g.generateOne(ctx, target, trendByProject[target.ProjectID], today)
		if err != nil {
			g.logger.Error("generate post", "project", target.ProjectID, "platform", target.Platform, "error", err)
			continue
		}
		created = append(created, post)
	}

	g.logger.Info("posts generated", "requested", len(targets), "created", len(created))
	return created, nil
}

func (g *Generator) generateOne(ctx context.Context, target domain.Target, trend domain.Trend, today string) (domain.GeneratedPost, error) {
	project, ok := g.catalog.Project(target.ProjectID)
	if !ok {
		return domain.GeneratedPost{}, fmt.Errorf("unknown project %q", target.ProjectID)
	}

	var insights []domain.KnowledgeInsight
	if g.knowledge != nil {
		var err error
		if insights, err = g.knowledge.Insights(ctx, project.ID, insightLimit); err != nil {
			g.logger.Warn("load insights", "project", project.ID, "error", err)
		}
	}

	recent, err := g.posts.RecentPublished(ctx, project.ID, recentLimit)
	if err != nil {
		g.logger.Warn("load recent posts", "project", project.ID, "error", err)
	}

	completion, err := g.llm.Complete(ctx, postPrompt(project, target.Platform, trend, insights, recent))
	if err != nil {
		return domain.GeneratedPost{}, fmt.Errorf("complete: %w", err)
	}
	content := strings.TrimSpace(completion.Text)
	if content == "" {
		return domain.GeneratedPost{}, fmt.Errorf("%s returned an empty post", completion.Provider)
	}

	var image []byte
	if g.illustrator != nil {
		if image, err = g.illustrator.Illustrate(ctx, project.Name, content); err != nil {
			g.logger.Warn("illustrate", "project", project.ID, "error", err)
			image = nil
		}
	}

	id, err := g.posts.CreatePost(ctx, domain.NewPost{
		ProjectID:     project.ID,
		Platform:      target.Platform,
		Content:       content,
		Category:      trend.Category,
		ScheduledDate: today,
	})
	if err != nil {
		return domain.GeneratedPost{}, fmt.Errorf("create post: %w", err)
	}
	g.logger.Info("draft created", "post", id, "project", project.ID, "platform", target.Platform, "provider", completion.Provider)

	if g.board != nil {
		post := domain.Post{
			ID:            id,
			ProjectID:     project.ID,
			Platform:      target.Platform,
			Content:       content,
			Category:      trend.Category,
			Status:        domain.StatusDraft,
			ScheduledDate: today,
			CreatedAt:     g.now(),
		}
		cardRef, err := g.board.ShowDraft(ctx, post, image)
		if err != nil {
			g.logger.Warn("show draft", "post", id, "error", err)
		} else if err := g.posts.SetMessageRef(ctx, id, domain.SlotCard, cardRef); err != nil {
			g.logger.Warn("store card ref", "post", id, "error", err)
		}
	}

	return domain.GeneratedPost{
		PostID:    id,
		ProjectID: project.ID,
		Platform:  target.Platform,
		Provider:  completion.Provider,
		Image:     image,
	}, nil
}
