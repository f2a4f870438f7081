package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

var (
	_ ports.ProjectRepository    = (*Repository)(nil)
	_ ports.TrendRepository      = (*Repository)(nil)
	_ ports.CompetitorRepository = (*Repository)(nil)
	_ ports.KnowledgeRepository  = (*Repository)(nil)
	_ ports.ReportRepository     = (*Repository)(nil)
)

// UpsertProject mirrors a configured project into the projects table.
func (r *Repository) UpsertProject(ctx context.Context, project domain.Project) error {
	_, err := r.exec(ctx, r.sb.Insert("projects").
		Columns("id", "name", "platforms", "active").
		Values(project.ID, project.Name, strings.Join(project.Platforms, ","), 1).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = excluded.name, platforms = excluded.platforms, active = 1"))
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", project.ID, err)
	}
	return nil
}

// ActiveProjects returns ids of active projects.
func (r *Repository) ActiveProjects(ctx context.Context) ([]string, error) {
	rows, err := r.query(ctx, r.sb.Select("id").From("projects").Where(sq.Eq{"active": 1}).OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ids, nil
}

// SaveTrend appends a trend pick.
func (r *Repository) SaveTrend(ctx context.Context, trend domain.Trend) (int64, error) {
	id, err := r.insertReturningID(ctx, r.sb.Insert("trends").
		Columns("date", "project_id", "trend", "idea", "category", "raw_trends", "created_at").
		Values(trend.Date, trend.ProjectID, trend.Trend, trend.Idea, trend.Category, trend.RawTrends, r.timestamp(r.now())))
	if err != nil {
		return 0, fmt.Errorf("insert trend: %w", err)
	}
	return id, nil
}

// TrendsOn returns the trend picks saved for date, newest first.
func (r *Repository) TrendsOn(ctx context.Context, date string) ([]domain.Trend, error) {
	rows, err := r.query(ctx, r.sb.
		Select("id", "date", "project_id", "trend", "idea", "category", "raw_trends", "created_at").
		From("trends").
		Where(sq.Eq{"date": date}).
		OrderBy("id DESC"))
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	var trends []domain.Trend
	for rows.Next() {
		var t domain.Trend
		if err := rows.Scan(&t.ID, &t.Date, &t.ProjectID, &t.Trend, &t.Idea, &t.Category, &t.RawTrends, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return trends, nil
}

// SaveCompetitorInsight appends a competitor snapshot.
func (r *Repository) SaveCompetitorInsight(ctx context.Context, insight domain.CompetitorInsight) (int64, error) {
	analysis, err := json.Marshal(insight.Analysis)
	if err != nil {
		return 0, fmt.Errorf("marshal analysis: %w", err)
	}

	id, err := r.insertReturningID(ctx, r.sb.Insert("competitor_insights").
		Columns("date", "analysis", "raw_data", "created_at").
		Values(insight.Date, string(analysis), insight.RawData, r.timestamp(r.now())))
	if err != nil {
		return 0, fmt.Errorf("insert competitor insight: %w", err)
	}
	return id, nil
}

// LatestCompetitorInsight returns the most recent competitor snapshot.
func (r *Repository) LatestCompetitorInsight(ctx context.Context) (domain.CompetitorInsight, error) {
	query, args, err := r.sb.Select("id", "date", "analysis", "raw_data", "created_at").
		From("competitor_insights").
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.CompetitorInsight{}, fmt.Errorf("build query: %w", err)
	}

	var (
		insight  domain.CompetitorInsight
		analysis string
	)
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&insight.ID, &insight.Date, &analysis, &insight.RawData, &insight.CreatedAt)
	if isNoRows(err) {
		return domain.CompetitorInsight{}, fmt.Errorf("competitor insight: %w", ErrNotFound)
	}
	if err != nil {
		return domain.CompetitorInsight{}, fmt.Errorf("query competitor insight: %w", err)
	}
	if err := json.Unmarshal([]byte(analysis), &insight.Analysis); err != nil {
		return domain.CompetitorInsight{}, fmt.Errorf("decode analysis %d: %w", insight.ID, err)
	}
	return insight, nil
}

// AddInsight appends a knowledge-base entry; an empty project id makes it global.
func (r *Repository) AddInsight(ctx context.Context, insight domain.KnowledgeInsight) (int64, error) {
	kind := insight.Type
	if kind == "" {
		kind = "content_insight"
	}

	id, err := r.insertReturningID(ctx, r.sb.Insert("knowledge_base").
		Columns("project_id", "type", "insight", "evidence", "created_at").
		Values(insight.ProjectID, kind, insight.Insight, insight.Evidence, r.timestamp(r.now())))
	if err != nil {
		return 0, fmt.Errorf("insert insight: %w", err)
	}
	return id, nil
}

// Insights returns insights for projectID plus global ones, newest first.
// An empty projectID returns insights of every project.
func (r *Repository) Insights(ctx context.Context, projectID string, limit int) ([]domain.KnowledgeInsight, error) {
	b := r.sb.Select("id", "project_id", "type", "insight", "evidence", "created_at").
		From("knowledge_base").
		OrderBy("created_at DESC", "id DESC")
	if projectID != "" {
		b = b.Where(sq.Or{sq.Eq{"project_id": projectID}, sq.Eq{"project_id": ""}})
	}
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	rows, err := r.query(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var insights []domain.KnowledgeInsight
	for rows.Next() {
		var in domain.KnowledgeInsight
		if err := rows.Scan(&in.ID, &in.ProjectID, &in.Type, &in.Insight, &in.Evidence, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		insights = append(insights, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return insights, nil
}

// SaveReport appends a weekly report.
func (r *Repository) SaveReport(ctx context.Context, report domain.Report) (int64, error) {
	id, err := r.insertReturningID(ctx, r.sb.Insert("reports").
		Columns("week_start", "week_end", "content", "created_at").
		Values(report.WeekStart, report.WeekEnd, report.Content, r.timestamp(r.now())))
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return id, nil
}

// LatestReport returns the most recent weekly report.
func (r *Repository) LatestReport(ctx context.Context) (domain.Report, error) {
	query, args, err := r.sb.Select("id", "week_start", "week_end", "content", "created_at").
		From("reports").
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Report{}, fmt.Errorf("build query: %w", err)
	}

	var report domain.Report
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&report.ID, &report.WeekStart, &report.WeekEnd, &report.Content, &report.CreatedAt)
	if isNoRows(err) {
		return domain.Report{}, fmt.Errorf("report: %w", ErrNotFound)
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("query report: %w", err)
	}
	return report, nil
}
