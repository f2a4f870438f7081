package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"SMMAgent/internal/domain"
)

var fixedNow = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type memPosts struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]domain.Post
	writes int
	// failGet makes GetPost return a storage error.
	failGet error
}

func newMemPosts() *memPosts {
	return &memPosts{posts: map[int64]domain.Post{}}
}

func (m *memPosts) seed(p domain.Post) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	if p.Status == "" {
		p.Status = domain.StatusDraft
	}
	m.posts[p.ID] = p
	return p.ID
}

func (m *memPosts) get(id int64) domain.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[id]
}

func (m *memPosts) CreatePost(_ context.Context, np domain.NewPost) (int64, error) {
	return m.seed(domain.Post{
		ProjectID:     np.ProjectID,
		Platform:      np.Platform,
		Content:       np.Content,
		Category:      np.Category,
		ScheduledDate: np.ScheduledDate,
		CreatedAt:     fixedNow,
	}), nil
}

func (m *memPosts) GetPost(_ context.Context, id int64) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return domain.Post{}, m.failGet
	}
	p, ok := m.posts[id]
	if !ok {
		return domain.Post{}, fmt.Errorf("post %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

func (m *memPosts) SetStatus(_ context.Context, id int64, from, to domain.Status, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if to == domain.StatusPublished {
		t := at
		p.PublishedAt = &t
	}
	m.posts[id] = p
	m.writes++
	return true, nil
}

func (m *memPosts) UpdateContent(_ context.Context, id int64, content string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != domain.StatusDraft {
		return false, nil
	}
	p.Content = content
	m.posts[id] = p
	m.writes++
	return true, nil
}

func (m *memPosts) SetMessageRef(_ context.Context, id int64, slot domain.MessageSlot, ref int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.posts[id]
	v := ref
	switch slot {
	case domain.SlotCard:
		p.CardMessageID = &v
	case domain.SlotChannel:
		p.ChannelMsgID = &v
	}
	m.posts[id] = p
	return nil
}

func (m *memPosts) filter(keep func(domain.Post) bool) []domain.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Post
	for _, p := range m.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (m *memPosts) ListApproved(_ context.Context, date string) ([]domain.Post, error) {
	return m.filter(func(p domain.Post) bool {
		return p.Status == domain.StatusApproved && p.ScheduledDate == date
	}), nil
}

func (m *memPosts) ListDrafts(context.Context) ([]domain.Post, error) {
	return m.filter(func(p domain.Post) bool { return p.Status == domain.StatusDraft }), nil
}

func (m *memPosts) CountByStatus(context.Context) (domain.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := domain.StatusCounts{ByStatus: map[domain.Status]int{}}
	for _, p := range m.posts {
		c.ByStatus[p.Status]++
		c.Total++
	}
	return c, nil
}

func (m *memPosts) RecentPublished(_ context.Context, projectID string, limit int) ([]domain.Post, error) {
	out := m.filter(func(p domain.Post) bool {
		return p.Status == domain.StatusPublished && p.ProjectID == projectID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memPosts) PublishedSince(_ context.Context, since time.Time) ([]domain.Post, error) {
	return m.filter(func(p domain.Post) bool {
		return p.Status == domain.StatusPublished && p.PublishedAt != nil && !p.PublishedAt.Before(since)
	}), nil
}

type refresh struct {
	postID  int64
	status  domain.Status
	cardRef int64
}

type fakeBoard struct {
	mu        sync.Mutex
	shown     []domain.Post
	refreshes []refresh
	nextCard  int64
}

func (b *fakeBoard) ShowDraft(_ context.Context, post domain.Post, _ []byte) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shown = append(b.shown, post)
	b.nextCard++
	return 1000 + b.nextCard, nil
}

func (b *fakeBoard) RefreshCard(_ context.Context, post domain.Post, cardRef int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshes = append(b.refreshes, refresh{postID: post.ID, status: post.Status, cardRef: cardRef})
	return nil
}

func (b *fakeBoard) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.refreshes)
}

type fakeChannel struct {
	mu     sync.Mutex
	fail   map[int64]error
	sent   []int64
	nextID int64
}

func (c *fakeChannel) Publish(_ context.Context, post domain.Post) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail[post.ID]; err != nil {
		return 0, err
	}
	c.sent = append(c.sent, post.ID)
	c.nextID++
	return 500 + c.nextID, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (n *fakeNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, text)
	return nil
}

type fakeLLM struct {
	mu      sync.Mutex
	answers []string
	err     error
	prompts []domain.Prompt
}

func (f *fakeLLM) Complete(_ context.Context, p domain.Prompt) (domain.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return domain.Completion{}, f.err
	}
	if len(f.answers) == 0 {
		return domain.Completion{}, errors.New("no scripted answer")
	}
	text := f.answers[0]
	f.answers = f.answers[1:]
	return domain.Completion{Text: text, Provider: "fake"}, nil
}

func (f *fakeLLM) CompleteJSON(ctx context.Context, p domain.Prompt, v any) (domain.Completion, error) {
	c, err := f.Complete(ctx, p)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(c.Text), v); err != nil {
		return c, fmt.Errorf("decode json: %w", err)
	}
	return c, nil
}

type fakeFeeds struct {
	items map[string][]domain.FeedItem
	err   error
}

func (f fakeFeeds) FetchGroup(_ context.Context, group string) ([]domain.FeedItem, error) {
	return f.items[group], f.err
}

type memRecords struct {
	mu          sync.Mutex
	trends      []domain.Trend
	competitors []domain.CompetitorInsight
	insights    []domain.KnowledgeInsight
	reports     []domain.Report
}

func (m *memRecords) SaveTrend(_ context.Context, t domain.Trend) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = int64(len(m.trends) + 1)
	m.trends = append(m.trends, t)
	return t.ID, nil
}

func (m *memRecords) TrendsOn(_ context.Context, date string) ([]domain.Trend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Trend
	for i := len(m.trends) - 1; i >= 0; i-- {
		if m.trends[i].Date == date {
			out = append(out, m.trends[i])
		}
	}
	return out, nil
}

func (m *memRecords) SaveCompetitorInsight(_ context.Context, in domain.CompetitorInsight) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in.ID = int64(len(m.competitors) + 1)
	m.competitors = append(m.competitors, in)
	return in.ID, nil
}

func (m *memRecords) LatestCompetitorInsight(context.Context) (domain.CompetitorInsight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.competitors) == 0 {
		return domain.CompetitorInsight{}, domain.ErrNotFound
	}
	return m.competitors[len(m.competitors)-1], nil
}

func (m *memRecords) AddInsight(_ context.Context, in domain.KnowledgeInsight) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in.ID = int64(len(m.insights) + 1)
	m.insights = append(m.insights, in)
	return in.ID, nil
}

func (m *memRecords) Insights(_ context.Context, projectID string, limit int) ([]domain.KnowledgeInsight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.KnowledgeInsight
	for i := len(m.insights) - 1; i >= 0 && len(out) < limit; i-- {
		in := m.insights[i]
		if projectID == "" || in.ProjectID == projectID || in.ProjectID == "" {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memRecords) SaveReport(_ context.Context, r domain.Report) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.reports) + 1)
	m.reports = append(m.reports, r)
	return r.ID, nil
}

func (m *memRecords) LatestReport(context.Context) (domain.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.reports) == 0 {
		return domain.Report{}, domain.ErrNotFound
	}
	return m.reports[len(m.reports)-1], nil
}

type transitionKey struct{ from, to domain.Status }

type countingRecorder struct {
	mu          sync.Mutex
	jobs        map[string]int
	transitions map[transitionKey]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{jobs: map[string]int{}, transitions: map[transitionKey]int{}}
}

func (r *countingRecorder) JobFinished(job, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job+"/"+outcome]++
}

func (r *countingRecorder) PostTransition(from, to domain.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[transitionKey{from, to}]++
}

func (r *countingRecorder) Completion(string, string) {}

func testCatalog() *domain.Catalog {
	c, err := domain.NewCatalog([]domain.Project{
		{ID: "personal_brand", Name: "Личный Бренд", Platforms: []string{"telegram", "instagram"}},
		{ID: "pixie", Name: "Пикси", Platforms: []string{"telegram"}},
	}, map[string]string{"пикси": "pixie"}, map[string]string{"тг": "telegram"})
	if err != nil {
		panic(err)
	}
	return c
}
