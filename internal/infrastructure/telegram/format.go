package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/usecase"
)

const (
	// MessageLimit is the Telegram text message size limit.
	MessageLimit = 4096
	cardContent  = 3500
	statusDrafts = 5
)

var statusEmoji = map[domain.Status]string{
	domain.StatusDraft:     "📝",
	domain.StatusApproved:  "✅",
	domain.StatusPublished: "📢",
	domain.StatusRejected:  "❌",
	domain.StatusError:     "⚠️",
}

// FormatCard renders the moderation card of a post.
func FormatCard(post domain.Post, catalog *domain.Catalog) string {
	name := post.ProjectID
	if catalog != nil {
		name = catalog.Name(post.ProjectID)
	}
	emoji, ok := statusEmoji[post.Status]
	if !ok {
		emoji = "📋"
	}

	content := post.Content
	if utf8.RuneCountInString(content) > cardContent {
		content = string([]rune(content)[:cardContent])
	}

	return fmt.Sprintf("%s #%d | %s | %s\nStatus: %s\n\n%s", emoji, post.ID, name, post.Platform, post.Status, content)
}

// SplitMessage splits text into chunks of at most limit runes, preferring line boundaries.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MessageLimit
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			parts = append(parts, string(runes))
			break
		}

		cut := -1
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		if cut == -1 {
			cut = limit
		}

		parts = append(parts, string(runes[:cut]))
		runes = []rune(strings.TrimLeft(string(runes[cut:]), "\n"))
	}
	return parts
}

// FormatStatus renders post counts and the oldest drafts.
func FormatStatus(counts domain.StatusCounts, drafts []domain.Post, catalog *domain.Catalog) string {
	var b strings.Builder
	b.WriteString(usecase.FormatCounts(counts))

	if len(drafts) > 0 {
		fmt.Fprintf(&b, "\n\nDrafts (%d):", len(drafts))
		for i, d := range drafts {
			if i == statusDrafts {
				break
			}
			fmt.Fprintf(&b, "\n#%d %s / %s", d.ID, catalog.Name(d.ProjectID), d.Platform)
		}
	}
	return b.String()
}

// FormatBrands lists the configured projects.
func FormatBrands(catalog *domain.Catalog) string {
	var b strings.Builder
	b.WriteString("Brands:\n")
	for _, p := range catalog.Projects() {
		fmt.Fprintf(&b, "\n%s (%s)\n  Platforms: %s\n  Audience: %s\n", p.Name, p.ID, strings.Join(p.Platforms, ", "), p.Audience)
	}
	return b.String()
}

// FormatStartup announces the schedule to the administrator.
func FormatStartup(jobs []usecase.Job, timezone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🤖 SMM Agent started (%s)\n", timezone)
	for _, j := range jobs {
		spec := j.Spec
		if spec == "" {
			spec = "manual"
		}
		fmt.Fprintf(&b, "\n%s: %s", j.ID, spec)
	}
	return b.String()
}

const helpText = `Commands:

/generate [project] [platform] - draft posts
  Example: /generate pixie tg
  Without arguments: every project
/trends - today's trends
/status - drafts and post counts
/report - latest weekly report
/competitors - latest competitor analysis
/brands - configured brands
/cancel - cancel an edit
/help - this help`

const startText = "SMM Agent\n\nDrafts posts for your brands and publishes what you approve.\nUse /help for the command list."
