package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
	"SMMAgent/internal/usecase"
)

// BotDeps wires the use cases reachable from chat.
type BotDeps struct {
	API         Sender
	Moderation  *usecase.Moderation
	Generator   *usecase.Generator
	Scheduler   *usecase.Scheduler
	Competitors *usecase.CompetitorWatch
	Reporter    *usecase.WeeklyReporter
	Trends      ports.TrendRepository
	Catalog     *domain.Catalog
	Logger      *slog.Logger
	Now         func() time.Time
}

// Bot routes Telegram updates: administrator commands, card buttons and edit text.
type Bot struct {
	api         Sender
	moderation  *usecase.Moderation
	generator   *usecase.Generator
	scheduler   *usecase.Scheduler
	competitors *usecase.CompetitorWatch
	reporter    *usecase.WeeklyReporter
	trends      ports.TrendRepository
	catalog     *domain.Catalog
	logger      *slog.Logger
	now         func() time.Time
}

// NewBot constructs the router.
func NewBot(deps BotDeps) *Bot {
	b := &Bot{
		api:         deps.API,
		moderation:  deps.Moderation,
		generator:   deps.Generator,
		scheduler:   deps.Scheduler,
		competitors: deps.Competitors,
		reporter:    deps.Reporter,
		trends:      deps.Trends,
		catalog:     deps.Catalog,
		logger:      deps.Logger,
		now:         deps.Now,
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Run handles updates until ctx is done or the channel closes. Each update
// is handled in its own goroutine; Run waits for them before returning.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				b.Handle(ctx, update)
			}()
		}
	}
}

// Handle processes a single update.
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || !b.moderation.IsAdmin(msg.From.ID) {
		return
	}
	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		if b.moderation.Pending(msg.From.ID) && strings.TrimSpace(msg.Text) != "" {
			out, err := b.moderation.SubmitEdit(ctx, msg.From.ID, msg.Text)
			b.replyOutcome(chatID, out, err)
		}
		return
	}

	log := b.logger.With("command", msg.Command())
	log.Debug("command received")

	switch msg.Command() {
	case "start":
		b.reply(chatID, startText)
	case "help":
		b.reply(chatID, helpText)
	case "generate":
		b.generate(ctx, chatID, msg.CommandArguments())
	case "trends":
		b.showTrends(ctx, chatID)
	case "status":
		b.showStatus(ctx, chatID)
	case "report":
		b.showReport(ctx, chatID)
	case "competitors":
		b.showCompetitors(ctx, chatID)
	case "brands":
		b.reply(chatID, FormatBrands(b.catalog))
	case "cancel":
		if b.moderation.CancelEdit(msg.From.ID) {
			b.reply(chatID, "Edit cancelled.")
		} else {
			b.reply(chatID, "Nothing to cancel.")
		}
	default:
		b.reply(chatID, "Unknown command. Use /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	action, postID, err := ParseCallback(cq.Data)
	if err != nil {
		b.logger.Warn("bad callback", "data", cq.Data, "error", err)
		b.answer(cq.ID, "", false)
		return
	}
	if action == ActionNoop {
		b.answer(cq.ID, "", false)
		return
	}

	var actor int64
	if cq.From != nil {
		actor = cq.From.ID
	}
	var cardRef int64
	if cq.Message != nil {
		cardRef = int64(cq.Message.MessageID)
	}

	var out usecase.Outcome
	switch action {
	case ActionApprove:
		out, err = b.moderation.Approve(ctx, actor, postID, cardRef)
	case ActionReject:
		out, err = b.moderation.Reject(ctx, actor, postID, cardRef)
	case ActionEdit:
		out, err = b.moderation.RequestEdit(ctx, actor, postID, cardRef)
	}
	if err != nil {
		b.logger.Error("moderation failed", "action", action, "post", postID, "error", err)
		b.answer(cq.ID, "Something went wrong, try again later.", true)
		return
	}

	if action == ActionEdit && b.moderation.Pending(actor) {
		b.answer(cq.ID, "", false)
		if cq.Message != nil {
			b.reply(cq.Message.Chat.ID, out.Notice)
		}
		return
	}

	b.answer(cq.ID, out.Notice, !out.Changed)
}

func (b *Bot) generate(ctx context.Context, chatID int64, args string) {
	args = strings.TrimSpace(args)
	var projectID, platform string
	if args != "" {
		projectID, platform = b.catalog.ParseTarget(args)
		if projectID == "" {
			names := make([]string, 0)
			for _, p := range b.catalog.Projects() {
				names = append(names, p.Name)
			}
			b.reply(chatID, fmt.Sprintf("Could not tell which project you mean.\nExample: /generate pixie tg\nAvailable: %s", strings.Join(names, ", ")))
			return
		}
	}

	b.reply(chatID, "Generating posts...")

	if projectID == "" && b.scheduler != nil {
		report, err := b.scheduler.RunNow(ctx, usecase.JobGenerate)
		if err != nil || report.Err != nil {
			b.reply(chatID, "Could not generate posts. Check the logs.")
			return
		}
		b.reply(chatID, fmt.Sprintf("Done! %s.", report.Summary))
		return
	}

	posts, err := b.generator.Generate(ctx, projectID, platform)
	if err != nil || len(posts) == 0 {
		if err != nil {
			b.logger.Error("generate", "project", projectID, "platform", platform, "error", err)
		}
		b.reply(chatID, "Could not generate posts. Check the logs.")
		return
	}
	b.reply(chatID, fmt.Sprintf("Done! %d drafts generated.", len(posts)))
}

func (b *Bot) showTrends(ctx context.Context, chatID int64) {
	trends, err := b.trends.TrendsOn(ctx, domain.Day(b.now()))
	if err != nil {
		b.logger.Error("load trends", "error", err)
		b.reply(chatID, "Could not load trends.")
		return
	}
	b.reply(chatID, usecase.FormatTrends(trends, b.catalog))
}

func (b *Bot) showStatus(ctx context.Context, chatID int64) {
	counts, err := b.moderation.Counts(ctx)
	if err != nil {
		b.logger.Error("count posts", "error", err)
		b.reply(chatID, "Could not load post counts.")
		return
	}
	drafts, err := b.moderation.Drafts(ctx)
	if err != nil {
		b.logger.Warn("list drafts", "error", err)
	}
	b.reply(chatID, FormatStatus(counts, drafts, b.catalog))
}

func (b *Bot) showReport(ctx context.Context, chatID int64) {
	report, err := b.reporter.Latest(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		b.reply(chatID, "No reports yet.")
	case err != nil:
		b.logger.Error("load report", "error", err)
		b.reply(chatID, "Could not load the report.")
	default:
		b.reply(chatID, usecase.FormatReport(report))
	}
}

func (b *Bot) showCompetitors(ctx context.Context, chatID int64) {
	insight, err := b.competitors.Latest(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		b.reply(chatID, "No competitor analysis yet.")
	case err != nil:
		b.logger.Error("load competitor insight", "error", err)
		b.reply(chatID, "Could not load the competitor analysis.")
	default:
		b.reply(chatID, usecase.FormatCompetitorInsight(insight))
	}
}

func (b *Bot) replyOutcome(chatID int64, out usecase.Outcome, err error) {
	if err != nil {
		b.logger.Error("moderation failed", "error", err)
		b.reply(chatID, "Something went wrong, try again later.")
		return
	}
	if out.Notice != "" {
		b.reply(chatID, out.Notice)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	for _, part := range SplitMessage(text, MessageLimit) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.DisableWebPagePreview = true
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Warn("send reply", "chat", chatID, "error", err)
			return
		}
	}
}

func (b *Bot) answer(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert && text != "" {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := b.api.Request(cfg); err != nil {
		b.logger.Warn("answer callback", "error", err)
	}
}
