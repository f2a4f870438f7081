package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// ModerationDeps wires the adapters used by the approval workflow.
type ModerationDeps struct {
	Posts    ports.PostRepository
	Board    ports.ModerationBoard
	AdminID  int64
	Recorder ports.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Outcome is what a moderation action did and what to tell the actor.
type Outcome struct {
	Post    domain.Post
	Changed bool
	Notice  string
}

type editSession struct {
	postID  int64
	cardRef int64
}

// Moderation implements approve, reject and edit on drafts.
type Moderation struct {
	posts    ports.PostRepository
	board    ports.ModerationBoard
	adminID  int64
	recorder ports.Recorder
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int64]editSession
}

// NewModeration constructs the moderation service.
func NewModeration(deps ModerationDeps) *Moderation {
	m := &Moderation{
		posts:    deps.Posts,
		board:    deps.Board,
		adminID:  deps.AdminID,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		now:      deps.Now,
		sessions: map[int64]editSession{},
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// IsAdmin reports whether actor may moderate.
func (m *Moderation) IsAdmin(actor int64) bool {
	return m.adminID != 0 && actor == m.adminID
}

// Approve moves a draft to approved and remembers the card it was approved from.
func (m *Moderation) Approve(ctx context.Context, actor, postID, cardRef int64) (Outcome, error) {
	post, guard, err := m.load(ctx, actor, postID, domain.CanApprove)
	if err != nil || !guard.Allowed {
		return Outcome{Post: post, Notice: guard.Reason}, err
	}

	out, err := m.transition(ctx, post, domain.StatusApproved)
	if err != nil || !out.Changed {
		return out, err
	}

	if cardRef != 0 {
		if err := m.posts.SetMessageRef(ctx, postID, domain.SlotCard, cardRef); err != nil {
			m.logger.Warn("store card ref", "post", postID, "error", err)
		} else {
			out.Post.CardMessageID = &cardRef
		}
	}

	out.Notice = fmt.Sprintf("Post #%d approved", postID)
	m.refresh(ctx, out.Post, cardRef)
	return out, nil
}

// Reject moves a draft to rejected.
func (m *Moderation) Reject(ctx context.Context, actor, postID, cardRef int64) (Outcome, error) {
	post, guard, err := m.load(ctx, actor, postID, domain.CanReject)
	if err != nil || !guard.Allowed {
		return Outcome{Post: post, Notice: guard.Reason}, err
	}

	out, err := m.transition(ctx, post, domain.StatusRejected)
	if err != nil || !out.Changed {
		return out, err
	}

	out.Notice = fmt.Sprintf("Post #%d rejected", postID)
	m.refresh(ctx, out.Post, cardRef)
	return out, nil
}

// RequestEdit opens an edit session for the administrator. A refused request
// closes any session the actor already had open.
func (m *Moderation) RequestEdit(ctx context.Context, actor, postID, cardRef int64) (Outcome, error) {
	post, guard, err := m.load(ctx, actor, postID, domain.CanRequestEdit)
	if err != nil || !guard.Allowed {
		m.CancelEdit(actor)
		return Outcome{Post: post, Notice: guard.Reason}, err
	}

	m.mu.Lock()
	m.sessions[actor] = editSession{postID: postID, cardRef: cardRef}
	m.mu.Unlock()

	return Outcome{
		Post:   post,
		Notice: fmt.Sprintf("Send the new text for post #%d, or /cancel", postID),
	}, nil
}

// SubmitEdit replaces the content of the post in the actor's edit session.
func (m *Moderation) SubmitEdit(ctx context.Context, actor int64, text string) (Outcome, error) {
	m.mu.Lock()
	session, ok := m.sessions[actor]
	m.mu.Unlock()
	if !ok {
		return Outcome{Notice: "No edit in progress"}, nil
	}

	post, err := m.posts.GetPost(ctx, session.postID)
	exists := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Outcome{}, fmt.Errorf("load post %d: %w", session.postID, err)
	}

	guard := domain.CanEdit(domain.EditContext{
		ModerationContext: domain.ModerationContext{
			PostID:  session.postID,
			Exists:  exists,
			Status:  post.Status,
			IsAdmin: m.IsAdmin(actor),
		},
		Text: text,
	})
	if !guard.Allowed {
		if !exists || post.Status != domain.StatusDraft {
			m.CancelEdit(actor)
		}
		return Outcome{Post: post, Notice: guard.Reason}, nil
	}

	changed, err := m.posts.UpdateContent(ctx, post.ID, text)
	if err != nil {
		return Outcome{Post: post}, fmt.Errorf("update post %d: %w", post.ID, err)
	}
	m.CancelEdit(actor)

	if !changed {
		fresh, ferr := m.posts.GetPost(ctx, post.ID)
		if ferr == nil {
			post = fresh
		}
		return Outcome{Post: post, Notice: fmt.Sprintf("post #%d is %s and can no longer be edited", post.ID, post.Status)}, nil
	}

	post.Content = text
	m.recorder.PostTransition(domain.StatusDraft, domain.StatusDraft)
	m.refresh(ctx, post, session.cardRef)
	return Outcome{Post: post, Changed: true, Notice: fmt.Sprintf("Post #%d updated", post.ID)}, nil
}

// CancelEdit closes the actor's edit session, reporting whether one was open.
func (m *Moderation) CancelEdit(actor int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[actor]
	delete(m.sessions, actor)
	return ok
}

// Pending reports whether the actor has an open edit session.
func (m *Moderation) Pending(actor int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.sessions[actor]
	return ok
}

// Counts returns post counts per status.
func (m *Moderation) Counts(ctx context.Context) (domain.StatusCounts, error) {
	return m.posts.CountByStatus(ctx)
}

// Drafts lists posts still awaiting a decision.
func (m *Moderation) Drafts(ctx context.Context) ([]domain.Post, error) {
	return m.posts.ListDrafts(ctx)
}

func (m *Moderation) load(ctx context.Context, actor, postID int64, guard func(domain.ModerationContext) domain.GuardResult) (domain.Post, domain.GuardResult, error) {
	if !m.IsAdmin(actor) {
		return domain.Post{}, guard(domain.ModerationContext{PostID: postID}), nil
	}

	post, err := m.posts.GetPost(ctx, postID)
	exists := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.Post{}, domain.GuardResult{}, fmt.Errorf("load post %d: %w", postID, err)
	}

	return post, guard(domain.ModerationContext{
		PostID:  postID,
		Exists:  exists,
		Status:  post.Status,
		IsAdmin: true,
	}), nil
}

// transition performs the conditional write; losing a race yields an unchanged outcome.
func (m *Moderation) transition(ctx context.Context, post domain.Post, to domain.Status) (Outcome, error) {
	changed, err := m.posts.SetStatus(ctx, post.ID, post.Status, to, m.now())
	if err != nil {
		return Outcome{Post: post}, fmt.Errorf("set post %d %s: %w", post.ID, to, err)
	}

	if !changed {
		if fresh, ferr := m.posts.GetPost(ctx, post.ID); ferr == nil {
			post = fresh
		}
		return Outcome{Post: post, Notice: fmt.Sprintf("post #%d is already %s", post.ID, post.Status)}, nil
	}

	m.recorder.PostTransition(post.Status, to)
	m.logger.Info("post moderated", "post", post.ID, "from", post.Status, "to", to)
	post.Status = to
	return Outcome{Post: post, Changed: true}, nil
}

func (m *Moderation) refresh(ctx context.Context, post domain.Post, cardRef int64) {
	if m.board == nil {
		return
	}
	if cardRef == 0 && post.CardMessageID != nil {
		cardRef = *post.CardMessageID
	}
	if cardRef == 0 {
		return
	}
	if err := m.board.RefreshCard(ctx, post, cardRef); err != nil {
		m.logger.Warn("refresh card", "post", post.ID, "error", err)
	}
}
