package domain

import (
	"fmt"
	"strings"
)

// Event is something that can happen to a post.
type Event string

const (
	EventApprove     Event = "approve"
	EventReject      Event = "reject"
	EventEdit        Event = "edit"
	EventPublished   Event = "publish_ok"
	EventPublishFail Event = "publish_fail"
)

// Transition returns the state reached from `from` on `event`.
// ok is false for every pair not in the lifecycle table.
func Transition(from Status, event Event) (to Status, ok bool) {
	switch {
	case from == StatusDraft && event == EventApprove:
		return StatusApproved, true
	case from == StatusDraft && event == EventReject:
		return StatusRejected, true
	case from == StatusDraft && event == EventEdit:
		return StatusDraft, true
	case from == StatusApproved && event == EventPublished:
		return StatusPublished, true
	case from == StatusApproved && event == EventPublishFail:
		return StatusError, true
	default:
		return from, false
	}
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// ReasonNotAdmin is shown to anyone but the administrator.
const ReasonNotAdmin = "only the administrator can do this"

// ModerationContext provides context for approve/reject/edit guards.
type ModerationContext struct {
	PostID  int64
	Exists  bool
	Status  Status
	IsAdmin bool
}

// EditContext adds the replacement text to the moderation context.
type EditContext struct {
	ModerationContext
	Text string
}

// PublishContext provides context for the publish sweep guard.
type PublishContext struct {
	PostID        int64
	Status        Status
	ScheduledDate string
	Today         string
}

// CanApprove evaluates whether a post can be approved.
// Rules:
// - Actor must be the administrator
// - Post must exist
// - Post must be a draft
func CanApprove(ctx ModerationContext) GuardResult {
	return canLeaveDraft(ctx, EventApprove)
}

// CanReject evaluates whether a post can be rejected.
// Rules:
// - Actor must be the administrator
// - Post must exist
// - Post must be a draft
func CanReject(ctx ModerationContext) GuardResult {
	return canLeaveDraft(ctx, EventReject)
}

func canLeaveDraft(ctx ModerationContext, event Event) GuardResult {
	if r := baseGuard(ctx); !r.Allowed {
		return r
	}
	if _, ok := Transition(ctx.Status, event); !ok {
		return GuardResult{Reason: fmt.Sprintf("post #%d is already %s", ctx.PostID, ctx.Status)}
	}
	return GuardResult{Allowed: true}
}

// CanRequestEdit evaluates whether an edit session may be opened for a post.
func CanRequestEdit(ctx ModerationContext) GuardResult {
	if r := baseGuard(ctx); !r.Allowed {
		return r
	}
	if ctx.Status != StatusDraft {
		return GuardResult{Reason: fmt.Sprintf("post #%d is %s and can no longer be edited", ctx.PostID, ctx.Status)}
	}
	return GuardResult{Allowed: true}
}

// CanEdit evaluates whether new content may replace a draft.
// Rules:
// - Same as CanRequestEdit
// - Text must not be blank
func CanEdit(ctx EditContext) GuardResult {
	if r := CanRequestEdit(ctx.ModerationContext); !r.Allowed {
		return r
	}
	if strings.TrimSpace(ctx.Text) == "" {
		return GuardResult{Reason: "new text is empty"}
	}
	return GuardResult{Allowed: true}
}

// CanPublish evaluates whether the sweep may deliver a post.
// Rules:
// - Post must be approved
// - Post must be scheduled for today
func CanPublish(ctx PublishContext) GuardResult {
	if ctx.Status != StatusApproved {
		return GuardResult{Reason: fmt.Sprintf("post #%d is %s, not approved", ctx.PostID, ctx.Status)}
	}
	if ctx.ScheduledDate != ctx.Today {
		return GuardResult{Reason: fmt.Sprintf("post #%d is scheduled for %s, not %s", ctx.PostID, ctx.ScheduledDate, ctx.Today)}
	}
	return GuardResult{Allowed: true}
}

func baseGuard(ctx ModerationContext) GuardResult {
	if !ctx.IsAdmin {
		return GuardResult{Reason: ReasonNotAdmin}
	}
	if !ctx.Exists {
		return GuardResult{Reason: fmt.Sprintf("post #%d not found", ctx.PostID)}
	}
	return GuardResult{Allowed: true}
}
