package domain

import "time"

// Trend is the per-project trend pick saved by the trend watch.
type Trend struct {
	ID        int64
	Date      string
	ProjectID string
	Trend     string
	Idea      string
	Category  string
	RawTrends string
	CreatedAt time.Time
}

// CompetitorAnalysis is the structured result of the competitor watch.
type CompetitorAnalysis struct {
	HotTopics     []string `json:"hot_topics"`
	ContentGaps   []string `json:"content_gaps"`
	BestFormats   []string `json:"best_formats"`
	Opportunities []string `json:"our_opportunities"`
	UrgentAlert   string   `json:"urgent_alert"`
}

// Empty reports whether the analysis carries nothing usable.
func (a CompetitorAnalysis) Empty() bool {
	return len(a.HotTopics) == 0 && len(a.ContentGaps) == 0 && len(a.BestFormats) == 0 &&
		len(a.Opportunities) == 0 && a.UrgentAlert == ""
}

// CompetitorInsight is a stored competitor snapshot.
type CompetitorInsight struct {
	ID       int64
	Date     string
	Analysis CompetitorAnalysis
	RawData  string
	// CreatedAt is set by the store.
	CreatedAt time.Time
}

// KnowledgeInsight is a lesson derived from prior published content.
type KnowledgeInsight struct {
	ID        int64
	ProjectID string
	Type      string
	Insight   string
	Evidence  string
	CreatedAt time.Time
}

// Report is a weekly synthesis.
type Report struct {
	ID        int64
	WeekStart string
	WeekEnd   string
	Content   string
	CreatedAt time.Time
}

// FeedItem is one entry extracted from a feed.
type FeedItem struct {
	Title       string
	Description string
	Source      string
}
