package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

var _ ports.PostRepository = (*Repository)(nil)

var postColumns = []string{
	"id", "project_id", "platform", "content", "category", "status",
	"scheduled_date", "created_at", "published_at", "card_message_id", "channel_msg_id",
}

// CreatePost inserts a new draft and returns its id.
func (r *Repository) CreatePost(ctx context.Context, post domain.NewPost) (int64, error) {
	id, err := r.insertReturningID(ctx, r.sb.Insert("posts").
		Columns("project_id", "platform", "content", "category", "status", "scheduled_date", "created_at").
		Values(post.ProjectID, post.Platform, post.Content, post.Category, string(domain.StatusDraft),
			post.ScheduledDate, r.timestamp(r.now())))
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// GetPost loads a post by id.
func (r *Repository) GetPost(ctx context.Context, id int64) (domain.Post, error) {
	posts, err := r.listPosts(ctx, r.sb.Select(postColumns...).From("posts").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Post{}, err
	}
	if len(posts) == 0 {
		return domain.Post{}, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return posts[0], nil
}

// SetStatus performs a conditional transition; a concurrent writer that got
// there first leaves nothing to update and false is returned.
func (r *Repository) SetStatus(ctx context.Context, id int64, from, to domain.Status, at time.Time) (bool, error) {
	b := r.sb.Update("posts").Set("status", string(to))
	if to == domain.StatusPublished {
		b = b.Set("published_at", r.timestamp(at))
	}
	b = b.Where(sq.Eq{"id": id, "status": string(from)})

	n, err := r.exec(ctx, b)
	if err != nil {
		return false, fmt.Errorf("update post %d status: %w", id, err)
	}
	return n > 0, nil
}

// UpdateContent replaces the content of a draft.
func (r *Repository) UpdateContent(ctx context.Context, id int64, content string) (bool, error) {
	n, err := r.exec(ctx, r.sb.Update("posts").
		Set("content", content).
		Where(sq.Eq{"id": id, "status": string(domain.StatusDraft)}))
	if err != nil {
		return false, fmt.Errorf("update post %d content: %w", id, err)
	}
	return n > 0, nil
}

// SetMessageRef stores a transport message reference for a post.
func (r *Repository) SetMessageRef(ctx context.Context, id int64, slot domain.MessageSlot, ref int64) error {
	var column string
	switch slot {
	case domain.SlotCard:
		column = "card_message_id"
	case domain.SlotChannel:
		column = "channel_msg_id"
	default:
		return fmt.Errorf("unknown message slot %q", slot)
	}

	if _, err := r.exec(ctx, r.sb.Update("posts").Set(column, ref).Where(sq.Eq{"id": id})); err != nil {
		return fmt.Errorf("update post %d %s: %w", id, column, err)
	}
	return nil
}

// ListApproved returns approved posts scheduled for date.
func (r *Repository) ListApproved(ctx context.Context, date string) ([]domain.Post, error) {
	return r.listPosts(ctx, r.sb.Select(postColumns...).From("posts").
		Where(sq.Eq{"status": string(domain.StatusApproved), "scheduled_date": date}).
		OrderBy("id"))
}

// ListDrafts returns every post awaiting moderation.
func (r *Repository) ListDrafts(ctx context.Context) ([]domain.Post, error) {
	return r.listPosts(ctx, r.sb.Select(postColumns...).From("posts").
		Where(sq.Eq{"status": string(domain.StatusDraft)}).
		OrderBy("id"))
}

// RecentPublished returns the latest published posts of a project.
func (r *Repository) RecentPublished(ctx context.Context, projectID string, limit int) ([]domain.Post, error) {
	b := r.sb.Select(postColumns...).From("posts").
		Where(sq.Eq{"status": string(domain.StatusPublished), "project_id": projectID}).
		OrderBy("published_at DESC", "id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	return r.listPosts(ctx, b)
}

// PublishedSince returns posts published at or after since, grouped by project.
func (r *Repository) PublishedSince(ctx context.Context, since time.Time) ([]domain.Post, error) {
	return r.listPosts(ctx, r.sb.Select(postColumns...).From("posts").
		Where(sq.Eq{"status": string(domain.StatusPublished)}).
		Where(sq.GtOrEq{"published_at": r.timestamp(since)}).
		OrderBy("project_id", "published_at"))
}

// CountByStatus aggregates posts per status.
func (r *Repository) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	rows, err := r.query(ctx, r.sb.Select("status", "COUNT(*)").From("posts").GroupBy("status"))
	if err != nil {
		return domain.StatusCounts{}, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()

	counts := domain.StatusCounts{ByStatus: make(map[domain.Status]int, len(domain.Statuses))}
	for _, s := range domain.Statuses {
		counts.ByStatus[s] = 0
	}

	for rows.Next() {
		var (
			raw string
			n   int
		)
		if err := rows.Scan(&raw, &n); err != nil {
			return domain.StatusCounts{}, fmt.Errorf("scan count: %w", err)
		}
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.StatusCounts{}, err
		}
		counts.ByStatus[status] = n
		counts.Total += n
	}
	if err := rows.Err(); err != nil {
		return domain.StatusCounts{}, fmt.Errorf("rows iteration: %w", err)
	}

	return counts, nil
}

func (r *Repository) listPosts(ctx context.Context, b sq.SelectBuilder) ([]domain.Post, error) {
	rows, err := r.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return posts, nil
}

func scanPost(rows *sql.Rows) (domain.Post, error) {
	var (
		post        domain.Post
		status      string
		publishedAt sql.NullTime
		cardID      sql.NullInt64
		channelID   sql.NullInt64
	)

	err := rows.Scan(&post.ID, &post.ProjectID, &post.Platform, &post.Content, &post.Category, &status,
		&post.ScheduledDate, &post.CreatedAt, &publishedAt, &cardID, &channelID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("scan post: %w", err)
	}

	post.Status, err = domain.ParseStatus(status)
	if err != nil {
		return domain.Post{}, fmt.Errorf("post %d: %w", post.ID, err)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		post.PublishedAt = &t
	}
	if cardID.Valid {
		v := cardID.Int64
		post.CardMessageID = &v
	}
	if channelID.Valid {
		v := channelID.Int64
		post.ChannelMsgID = &v
	}

	return post, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
