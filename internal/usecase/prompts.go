package usecase

import (
	"fmt"
	"strings"

	"SMMAgent/internal/domain"
)

const (
	systemCopywriter = "You are a senior SMM copywriter. You write ready-to-publish posts, never comments about the post."
	systemTrends     = "You are a trend analyst. Answer with strict JSON only, no markdown."
	systemCompetitor = "You are a content marketing strategist. Answer with strict JSON only, no markdown."
	systemAnalyst    = "You are an SMM analyst. Be brief and concrete."
	systemAnalystJS  = "You are an SMM analyst. Answer with strict JSON only."

	noTrend      = "no trend today, pick an evergreen topic"
	emptyKB      = "knowledge base is empty"
	noRecent     = "no previous posts"
	recentChars  = 100
	reportChars  = 80
	kbPostChars  = 150
	trendLimit   = 25
	insightLimit = 8
	recentLimit  = 5
)

func postPrompt(p domain.Project, platform string, trend domain.Trend, insights []domain.KnowledgeInsight, recent []domain.Post) domain.Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "Write one %s post for the brand \"%s\".\n\n", platform, p.Name)
	fmt.Fprintf(&b, "Voice: %s\nLanguage: %s\nAudience: %s\nGoal: %s\nTopics: %s\nNever: %s\n\n",
		p.Voice, p.Language, p.Audience, p.Goal, p.Topics, p.Forbidden)

	if trend.Trend != "" {
		fmt.Fprintf(&b, "Today's trend: %s\n", trend.Trend)
		if trend.Idea != "" {
			fmt.Fprintf(&b, "Suggested angle: %s\n", trend.Idea)
		}
	} else {
		fmt.Fprintf(&b, "Today's trend: %s\n", noTrend)
	}

	b.WriteString("\nWhat we learned so far:\n")
	if len(insights) == 0 {
		b.WriteString(emptyKB + "\n")
	}
	for _, in := range insights {
		fmt.Fprintf(&b, "[%s] %s\n", in.Type, in.Insight)
	}

	b.WriteString("\nRecent posts, do not repeat them:\n")
	if len(recent) == 0 {
		b.WriteString(noRecent + "\n")
	}
	for _, post := range recent {
		fmt.Fprintf(&b, "- %s: %s...\n", post.Platform, truncateRunes(post.Content, recentChars))
	}

	if p.Style != "" {
		fmt.Fprintf(&b, "\nStyle reference: %s\n", p.Style)
	}
	fmt.Fprintf(&b, "\nFollow the length and formatting conventions of %s. Output only the post text.", platform)

	return domain.Prompt{System: systemCopywriter, User: b.String(), MaxTokens: 2000}
}

func trendPrompt(titles []string, projects []domain.Project) domain.Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "Here are %d trending headlines:\n%s\n\n", len(titles), strings.Join(titles, "\n"))
	b.WriteString("For each brand pick the single most relevant trend and an idea for a post.\n")
	for _, p := range projects {
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.ID, p.Name, p.Topics)
	}
	b.WriteString(`
Answer with a JSON object keyed by brand id:
{"<brand_id>": {"trend": "...", "idea": "...", "category": "..."}}`)

	return domain.Prompt{System: systemTrends, User: b.String()}
}

func competitorPrompt(count int, posts string) domain.Prompt {
	user := fmt.Sprintf(`Here are %d recent posts from competitor channels:
%s

Analyse them and answer with JSON:
{"hot_topics": [], "content_gaps": [], "best_formats": [], "our_opportunities": [], "urgent_alert": ""}`, count, posts)

	return domain.Prompt{System: systemCompetitor, User: user}
}

func reportPrompt(weekStart, weekEnd string, total int, stats, insights string) domain.Prompt {
	user := fmt.Sprintf(`Weekly SMM report for %s to %s.
Published posts: %d
%s

Current knowledge base:
%s

Summarise what worked, what did not, and give three recommendations for next week.`,
		weekStart, weekEnd, total, stats, insights)

	return domain.Prompt{System: systemAnalyst, User: user}
}

func knowledgePrompt(posts, current string) domain.Prompt {
	user := fmt.Sprintf(`Published posts of the week:
%s

Current knowledge base:
%s

Derive new lessons that are not in the knowledge base yet. Answer with JSON:
{"new_insights": [{"project": "<brand_id or empty for all>", "type": "content_insight", "insight": "...", "evidence": "..."}]}`,
		posts, current)

	return domain.Prompt{System: systemAnalystJS, User: user}
}

func formatInsights(insights []domain.KnowledgeInsight, empty string) string {
	if len(insights) == 0 {
		return empty
	}
	lines := make([]string, 0, len(insights))
	for _, in := range insights {
		lines = append(lines, fmt.Sprintf("[%s] %s", in.Type, in.Insight))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
