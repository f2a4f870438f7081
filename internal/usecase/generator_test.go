package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"SMMAgent/internal/domain"
)

type fakeIllustrator struct {
	err   error
	calls int
}

func (f *fakeIllustrator) Illustrate(context.Context, string, string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

func TestGenerateForEveryTarget(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	posts := newMemPosts()
	records := &memRecords{}
	_, _ = records.SaveTrend(ctx, domain.Trend{Date: "2026-10-16", ProjectID: "pixie", Trend: "Back to school", Idea: "pencil cases", Category: "season"})
	_, _ = records.AddInsight(ctx, domain.KnowledgeInsight{ProjectID: "pixie", Type: "content_insight", Insight: "short posts win"})
	posts.seed(domain.Post{ProjectID: "pixie", Platform: "telegram", Content: "Last week's hit", Status: domain.StatusPublished})

	llm := &fakeLLM{answers: []string{"post one", "post two", "  post three  "}}
	board := &fakeBoard{}
	g := NewGenerator(GeneratorDeps{
		Posts:       posts,
		Trends:      records,
		Knowledge:   records,
		LLM:         llm,
		Illustrator: &fakeIllustrator{},
		Board:       board,
		Catalog:     testCatalog(),
		Now:         clock,
	})

	created, err := g.Generate(ctx, "", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("expected 3 drafts, got %d", len(created))
	}
	if len(board.shown) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(board.shown))
	}

	last := posts.get(created[2].PostID)
	if last.Status != domain.StatusDraft || last.Content != "post three" || last.ScheduledDate != "2026-10-16" {
		t.Fatalf("unexpected draft %+v", last)
	}
	if last.Category != "season" {
		t.Fatalf("trend category not carried: %q", last.Category)
	}
	if last.CardMessageID == nil || *last.CardMessageID != 1003 {
		t.Fatalf("card ref not stored: %+v", last.CardMessageID)
	}
	if string(created[2].Image) != "png" {
		t.Fatal("image not attached")
	}

	prompt := llm.prompts[2].User
	for _, want := range []string{"Back to school", "short posts win", "Last week's hit"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("pixie prompt misses %q:\n%s", want, prompt)
		}
	}
	if !strings.Contains(llm.prompts[0].User, noTrend) {
		t.Fatalf("project without trend should get the evergreen hint:\n%s", llm.prompts[0].User)
	}
}

func TestGenerateSkipsFailingTargets(t *testing.T) {
	t.Parallel()

	posts := newMemPosts()
	llm := &fakeLLM{answers: []string{"   ", "good post"}}
	ill := &fakeIllustrator{err: errors.New("image service down")}
	g := NewGenerator(GeneratorDeps{Posts: posts, LLM: llm, Illustrator: ill, Catalog: testCatalog(), Now: clock})

	created, err := g.Generate(context.Background(), "personal_brand", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 1 || created[0].Platform != "instagram" {
		t.Fatalf("expected only the instagram draft, got %+v", created)
	}
	if created[0].Image != nil {
		t.Fatal("failed illustration should leave no image")
	}
}

func TestGenerateRejectsUnknownProject(t *testing.T) {
	t.Parallel()

	g := NewGenerator(GeneratorDeps{Posts: newMemPosts(), LLM: &fakeLLM{}, Catalog: testCatalog()})
	if _, err := g.Generate(context.Background(), "nope", ""); err == nil {
		t.Fatal("expected unknown project error")
	}
}

func TestGenerateSingleTarget(t *testing.T) {
	t.Parallel()

	posts := newMemPosts()
	g := NewGenerator(GeneratorDeps{Posts: posts, LLM: &fakeLLM{answers: []string{"reel script"}}, Catalog: testCatalog(), Now: clock})

	created, err := g.Generate(context.Background(), "pixie", "instagram")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(created) != 1 || created[0].ProjectID != "pixie" || created[0].Platform != "instagram" {
		t.Fatalf("unexpected drafts %+v", created)
	}
}
