package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// PublisherDeps wires the publish sweep.
type PublisherDeps struct {
	Posts    ports.PostRepository
	Channel  ports.ChannelPublisher
	Recorder ports.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// SweepResult lists post ids per sweep outcome.
type SweepResult struct {
	Published []int64
	Failed    []int64
}

// Publisher delivers approved posts scheduled for a day.
type Publisher struct {
	posts    ports.PostRepository
	channel  ports.ChannelPublisher
	recorder ports.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewPublisher constructs the sweep.
func NewPublisher(deps PublisherDeps) *Publisher {
	p := &Publisher{
		posts:    deps.Posts,
		channel:  deps.Channel,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		now:      deps.Now,
	}
	if p.recorder == nil {
		p.recorder = nopRecorder{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Sweep publishes every approved post scheduled for day, one at a time.
// A failed delivery marks that post as error and the sweep moves on.
func (p *Publisher) Sweep(ctx context.Context, day string) (SweepResult, error) {
	var result SweepResult

	if p.channel == nil {
		return result, fmt.Errorf("channel publisher is not configured")
	}

	posts, err := p.posts.ListApproved(ctx, day)
	if err != nil {
		return result, fmt.Errorf("list approved: %w", err)
	}

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		guard := domain.CanPublish(domain.PublishContext{
			PostID:        post.ID,
			Status:        post.Status,
			ScheduledDate: post.ScheduledDate,
			Today:         day,
		})
		if !guard.Allowed {
			p.logger.Debug("skip post", "post", post.ID, "reason", guard.Reason)
			continue
		}

		switch p.publishOne(ctx, post) {
		case domain.StatusPublished:
			result.Published = append(result.Published, post.ID)
		case domain.StatusError:
			result.Failed = append(result.Failed, post.ID)
		}
	}

	p.logger.Info("publish sweep done", "day", day, "published", len(result.Published), "failed", len(result.Failed))
	return result, nil
}

// publishOne returns the status the post ended in, or approved when another
// writer moved it first.
func (p *Publisher) publishOne(ctx context.Context, post domain.Post) domain.Status {
	msgID, sendErr := p.channel.Publish(ctx, post)
	if sendErr != nil {
		p.logger.Error("publish failed", "post", post.ID, "project", post.ProjectID, "error", sendErr)
		changed, err := p.posts.SetStatus(ctx, post.ID, domain.StatusApproved, domain.StatusError, p.now())
		if err != nil {
			p.logger.Error("mark post error", "post", post.ID, "error", err)
			return domain.StatusError
		}
		if !changed {
			return domain.StatusApproved
		}
		p.recorder.PostTransition(domain.StatusApproved, domain.StatusError)
		return domain.StatusError
	}

	changed, err := p.posts.SetStatus(ctx, post.ID, domain.StatusApproved, domain.StatusPublished, p.now())
	if err != nil {
		p.logger.Error("mark post published", "post", post.ID, "message", msgID, "error", err)
		return domain.StatusError
	}
	if !changed {
		p.logger.Warn("post changed during publish", "post", post.ID)
		return domain.StatusApproved
	}
	p.recorder.PostTransition(domain.StatusApproved, domain.StatusPublished)

	if err := p.posts.SetMessageRef(ctx, post.ID, domain.SlotChannel, msgID); err != nil {
		p.logger.Warn("store channel ref", "post", post.ID, "error", err)
	}

	p.logger.Info("post published", "post", post.ID, "project", post.ProjectID, "message", msgID)
	return domain.StatusPublished
}
