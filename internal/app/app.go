package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"SMMAgent/internal/config"
	"SMMAgent/internal/domain"
	"SMMAgent/internal/infrastructure/httpapi"
	"SMMAgent/internal/infrastructure/llm"
	"SMMAgent/internal/infrastructure/ml"
	"SMMAgent/internal/infrastructure/parser"
	"SMMAgent/internal/infrastructure/scheduler"
	"SMMAgent/internal/infrastructure/storage"
	"SMMAgent/internal/infrastructure/telegram"
	"SMMAgent/internal/logging"
	"SMMAgent/internal/metrics"
	"SMMAgent/internal/ports"
	"SMMAgent/internal/scanner"
	"SMMAgent/internal/usecase"
)

// Application wires configuration to use cases and owns their lifecycle.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *storage.Repository
	metrics *metrics.Metrics
	catalog *domain.Catalog

	api       *tgbotapi.BotAPI
	notifier  ports.AdminNotifier
	bot       *telegram.Bot
	scheduler *usecase.Scheduler
	ops       *httpapi.Server
}

// New opens the store and builds every component. Only a store failure is
// fatal; a missing bot token or LLM key degrades the agent instead.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("project catalog: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		store:   store,
		metrics: metrics.New(),
		catalog: catalog,
	}
	if err := a.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	loc := cfg.Scheduler.Location()
	now := func() time.Time { return time.Now().In(loc) }

	chain, err := llm.Build(ctx, cfg.LLM.Providers, a.metrics, baseLogger)
	if err != nil {
		baseLogger.Warn("llm unavailable, jobs needing it will fail", "error", err)
		chain = llm.NewChain(nil, a.metrics, baseLogger)
	} else {
		baseLogger.Info("llm providers", "order", chain.Names())
	}

	feedClient := parser.NewFeedClient()
	registry := scanner.NewRegistry(
		parser.NewHeadlinesScanner(feedClient),
		parser.NewChannelScanner(feedClient),
	)
	source := parser.NewStrategySource(registry, cfg.Feeds, baseLogger.With("component", "source"))

	var (
		channel ports.ChannelPublisher
		board   ports.ModerationBoard
		tgBoard *telegram.Board
	)
	if api := a.connectTelegram(); api != nil {
		n := telegram.NewNotifier(api, cfg.Telegram.AdminChatID, cfg.Telegram.ChannelID)
		tgBoard = telegram.NewBoard(api, cfg.Telegram.AdminChatID, catalog, baseLogger.With("component", "board"))
		a.api = api
		a.notifier = n
		board = tgBoard
		if cfg.Telegram.ChannelID != "" {
			channel = n
		}
	}

	var illustrator ports.Illustrator
	if cfg.Illustrator.Enabled && cfg.Illustrator.Endpoint != "" {
		illustrator = ml.NewClient(cfg.Illustrator, chain, baseLogger)
	}

	competitors := usecase.NewCompetitorWatch(usecase.CompetitorWatchDeps{
		Feeds:       source,
		LLM:         chain,
		Competitors: store,
		Group:       config.GroupCompetitors,
		Logger:      baseLogger.With("component", "competitors"),
		Now:         now,
	})
	trends := usecase.NewTrendWatch(usecase.TrendWatchDeps{
		Feeds:   source,
		LLM:     chain,
		Trends:  store,
		Catalog: catalog,
		Group:   config.GroupTrends,
		Logger:  baseLogger.With("component", "trends"),
		Now:     now,
	})
	generator := usecase.NewGenerator(usecase.GeneratorDeps{
		Posts:       store,
		Trends:      store,
		Knowledge:   store,
		LLM:         chain,
		Illustrator: illustrator,
		Board:       board,
		Catalog:     catalog,
		Logger:      baseLogger.With("component", "generator"),
		Now:         now,
	})
	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Posts:    store,
		Channel:  channel,
		Recorder: a.metrics,
		Logger:   baseLogger.With("component", "publisher"),
		Now:      now,
	})
	reporter := usecase.NewWeeklyReporter(usecase.WeeklyReporterDeps{
		Posts:     store,
		Knowledge: store,
		Reports:   store,
		LLM:       chain,
		Catalog:   catalog,
		Logger:    baseLogger.With("component", "reporter"),
		Now:       now,
	})

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Competitors: competitors,
		Trends:      trends,
		Generator:   generator,
		Publisher:   publisher,
		Reporter:    reporter,
		Notifier:    a.notifier,
		Catalog:     catalog,
		Logger:      baseLogger.With("component", "pipeline"),
		Now:         now,
	})

	a.scheduler = usecase.NewScheduler(usecase.SchedulerDeps{
		Driver:   scheduler.NewCronScheduler(loc, baseLogger),
		Notifier: a.notifier,
		Recorder: a.metrics,
		Logger:   baseLogger.With("component", "scheduler"),
	})
	for _, job := range pipeline.Jobs(cfg.Scheduler.Jobs) {
		if err := a.scheduler.Register(job); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("register job: %w", err)
		}
	}

	if a.api != nil {
		moderation := usecase.NewModeration(usecase.ModerationDeps{
			Posts:    store,
			Board:    tgBoard,
			Recorder: a.metrics,
			AdminID:  cfg.Telegram.AdminChatID,
			Logger:   baseLogger.With("component", "moderation"),
			Now:      now,
		})
		a.bot = telegram.NewBot(telegram.BotDeps{
			API:         a.api,
			Moderation:  moderation,
			Generator:   generator,
			Scheduler:   a.scheduler,
			Competitors: competitors,
			Reporter:    reporter,
			Trends:      store,
			Catalog:     catalog,
			Logger:      baseLogger.With("component", "bot"),
			Now:         now,
		})
	}

	if cfg.HTTP.Addr != "" {
		a.ops = httpapi.NewServer(store, a.metrics, baseLogger)
	}

	return a, nil
}

// Migrate creates the schema and mirrors configured projects into the store.
func (a *Application) Migrate(ctx context.Context) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, p := range a.catalog.Projects() {
		if err := a.store.UpsertProject(ctx, p); err != nil {
			return fmt.Errorf("seed projects: %w", err)
		}
	}
	return nil
}

// RunJob executes one job immediately under the scheduler's error boundary.
func (a *Application) RunJob(ctx context.Context, id string) (usecase.JobReport, error) {
	return a.scheduler.RunNow(ctx, id)
}

// Serve starts the scheduler, the bot and the ops server and blocks until
// ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if a.notifier != nil {
		notice := telegram.FormatStartup(a.scheduler.Jobs(), a.cfg.Scheduler.Location().String())
		if err := a.notifier.Notify(ctx, notice); err != nil {
			a.logger.Warn("startup notice", "error", err)
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	if a.bot != nil {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := a.api.GetUpdatesChan(u)
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.bot.Run(ctx, updates)
		}()
		a.logger.Info("bot polling started", "bot", a.api.Self.UserName)
	}

	if a.ops != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.ops.Run(ctx, a.cfg.HTTP.Addr); err != nil {
				select {
				case errCh <- err:
				default:
				}
				cancel()
			}
		}()
	}

	<-ctx.Done()
	a.logger.Info("shutting down")

	if a.api != nil {
		a.api.StopReceivingUpdates()
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	stopErr := a.scheduler.Stop(stopCtx)
	wg.Wait()

	select {
	case err := <-errCh:
		return errors.Join(err, stopErr)
	default:
		return stopErr
	}
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}

func (a *Application) connectTelegram() *tgbotapi.BotAPI {
	tg := a.cfg.Telegram
	if tg.BotToken == "" || tg.AdminChatID == 0 {
		a.logger.Warn("telegram disabled, set BOT_TOKEN and ADMIN_CHAT_ID")
		return nil
	}

	api, err := tgbotapi.NewBotAPI(tg.BotToken)
	if err != nil {
		a.logger.Error("telegram login failed", "error", err)
		return nil
	}
	a.logger.Info("telegram connected", "bot", api.Self.UserName)
	return api
}
