package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by repositories when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DateLayout is the calendar-day format used for scheduled dates and record keys.
const DateLayout = "2006-01-02"

// Status is the moderation state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPublished Status = "published"
	StatusError     Status = "error"
)

// Statuses lists every known status in display order.
var Statuses = []Status{StatusDraft, StatusApproved, StatusPublished, StatusRejected, StatusError}

// ParseStatus converts a persisted value into a Status, rejecting anything unknown.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusDraft, StatusApproved, StatusRejected, StatusPublished, StatusError:
		return Status(value), nil
	default:
		return "", fmt.Errorf("unknown post status %q", value)
	}
}

// Terminal reports whether no further transition can leave the status.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusPublished || s == StatusError
}

func (s Status) String() string {
	return string(s)
}

// MessageSlot selects which transport message reference of a post is updated.
type MessageSlot string

const (
	// SlotCard is the moderation card shown to the administrator.
	SlotCard MessageSlot = "card"
	// SlotChannel is the published copy in the public channel.
	SlotChannel MessageSlot = "channel"
)

// Post is a generated social post moving through moderation.
type Post struct {
	ID            int64
	ProjectID     string
	Platform      string
	Content       string
	Category      string
	Status        Status
	ScheduledDate string
	CreatedAt     time.Time
	PublishedAt   *time.Time
	CardMessageID *int64
	ChannelMsgID  *int64
}

// StatusCounts aggregates posts per status.
type StatusCounts struct {
	ByStatus map[Status]int
	Total    int
}

// Count returns the number of posts in the given status.
func (c StatusCounts) Count(s Status) int {
	if c.ByStatus == nil {
		return 0
	}
	return c.ByStatus[s]
}

// NewPost describes a draft to be persisted.
type NewPost struct {
	ProjectID     string
	Platform      string
	Content       string
	Category      string
	ScheduledDate string
}

// GeneratedPost is what the post generator hands back for each created draft.
type GeneratedPost struct {
	PostID    int64
	ProjectID string
	Platform  string
	Provider  string
	Image     []byte
}

// Day formats t as a calendar day in its own location.
func Day(t time.Time) string {
	return t.Format(DateLayout)
}
