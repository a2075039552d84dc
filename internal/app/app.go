package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"PackCurator/internal/config"
	"PackCurator/internal/infrastructure/catalog"
	"PackCurator/internal/infrastructure/images"
	"PackCurator/internal/infrastructure/llm"
	"PackCurator/internal/infrastructure/modrinth"
	"PackCurator/internal/infrastructure/scheduler"
	"PackCurator/internal/infrastructure/storage"
	"PackCurator/internal/infrastructure/telegram"
	"PackCurator/internal/logging"
	"PackCurator/internal/ports"
	"PackCurator/internal/queue"
	"PackCurator/internal/session"
	"PackCurator/internal/source"
	"PackCurator/internal/styler"
	"PackCurator/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	updates *telegram.UpdateLoop
	poll    *usecase.PollLoop
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	dedup, err := buildDedup(cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	imageStore, err := images.NewStore(cfg.Storage.ImagesDir, nil, baseLogger.With("component", "images"))
	if err != nil {
		return nil, err
	}

	registry := source.NewRegistry()
	registry.Register(modrinth.NewClient(nil, dedup, baseLogger.With("component", "source.modrinth")))
	registry.Register(catalog.NewHTMLScanner(nil, dedup, baseLogger.With("component", "source.html")))

	packSource := source.NewMulti(registry, cfg.Catalogs, baseLogger.With("component", "source"))

	var primary ports.Styler
	if cfg.Gemini.APIKey != "" {
		primary = llm.NewGeminiClient(cfg.Gemini)
	}
	renderer := styler.NewPipeline(primary, baseLogger.With("component", "styler"))

	sender := telegram.NewSender(cfg.Telegram.BotToken, cfg.Telegram.ChannelID)
	queueStore := queue.NewStore(cfg.Storage.QueueFile, baseLogger.With("component", "queue"))

	curator := usecase.NewCurator(usecase.CuratorDeps{
		Source:    packSource,
		Dedup:     dedup,
		Queue:     queueStore,
		Styler:    renderer,
		Transport: sender,
		Images:    imageStore,
		Sessions:  session.NewRegistry(),
		Location:  cfg.Scheduler.Location(),
		Logger:    baseLogger.With("component", "curator"),
	})

	publisher := usecase.NewPublisher(usecase.PublisherDeps{
		Queue:     queueStore,
		Transport: sender,
		Images:    imageStore,
		Logger:    baseLogger.With("component", "publisher"),
	})

	ticker := scheduler.NewTicker(cfg.Scheduler.PollInterval(), cfg.Scheduler.InitialDelay())
	poll := usecase.NewPollLoop(ticker, publisher)

	handler := &botHandler{curator: curator}
	updates := telegram.NewUpdateLoop(cfg.Telegram.BotToken, handler, baseLogger.With("component", "updates"))

	return &Application{
		cfg:     cfg,
		logger:  baseLogger,
		updates: updates,
		poll:    poll,
	}, nil
}

// Run starts the queue poller and the Telegram update loop and blocks
// until the context is canceled or the update loop fails.
func (a *Application) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	if err := a.poll.Start(ctx); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.poll.Stop(stopCtx)
	}()

	group.Go(func() error {
		return a.updates.Run(ctx)
	})

	a.logger.Info("pack curator started")
	return group.Wait()
}

// buildDedup picks the Postgres dedup store when a DSN is configured and
// the append-only file log otherwise.
func buildDedup(cfg config.Config, baseLogger *slog.Logger) (ports.DedupStore, error) {
	if cfg.Database.DSN != "" {
		store, err := storage.OpenPostgresDedup(cfg.Database.DSN, baseLogger.With("component", "dedup.postgres"))
		if err != nil {
			return nil, fmt.Errorf("open postgres dedup: %w", err)
		}
		return store, nil
	}

	store, err := storage.NewFileDedup(cfg.Storage.DedupLog)
	if err != nil {
		return nil, fmt.Errorf("open dedup log: %w", err)
	}
	return store, nil
}
