package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/archive"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/batch"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/config"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/events"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/platform/gemini"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/platform/postgres"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prefs"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/session"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/store"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/tagging"
)

// application holds all shared dependencies so startup wiring and
// shutdown cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when running with in-memory preferences only.
	db *sql.DB

	queueStore *queue.Store
	prefs      *prefs.Service
	scheduler  *batch.Scheduler
	sessions   *session.Manager
	tagger     *tagging.Adapter
	gemini     *gemini.Client
	packer     *archive.Packer
	randomizer *prompt.Randomizer
}

// newApplication wires every component. Preferences persist to Postgres
// when a database URL is configured and fall back to process memory
// otherwise. The queue itself is never persisted.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	var kv store.KeyValue
	if cfg.Persistence.DatabaseURL != "" {
		db, err := setupDatabase(cfg.Persistence.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		app.db = db

		if err := postgres.RunMigrations(db, logger); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		kv = postgres.NewKVStore(db, logger)
		logger.Info("preferences persistence enabled")
	} else {
		kv = store.NewMemoryKV()
		logger.Info("no database configured, preferences are in-memory")
	}

	var err error
	app.prefs, err = prefs.NewService(kv, cfg.Persistence.CounterTimezone, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create preferences service: %w", err)
	}

	app.gemini, err = gemini.NewClient(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	logger.Info("Gemini client initialized",
		"edit_model", cfg.LLM.EditModel,
		"tag_model", cfg.LLM.TagModel)

	emitter := events.NewInMemoryEmitter(logger)
	app.queueStore = queue.NewStore(emitter, logger)
	app.tagger = tagging.NewAdapter(app.gemini, logger)

	app.scheduler = batch.NewScheduler(
		app.queueStore,
		app.gemini,
		app.tagger,
		app.prefs,
		batch.Config{
			Throttle: time.Duration(cfg.Batch.ThrottleMillis) * time.Millisecond,
			Cooldown: time.Duration(cfg.Batch.CooldownMillis) * time.Millisecond,
		},
		logger,
	)

	// The scheduler ticks off store mutations: enqueues grow an active
	// batch, and every resolved edit kicks the next dispatch.
	emitter.RegisterHandler(app.scheduler)

	app.sessions = session.NewManager(app.queueStore, app.gemini, app.tagger, logger)
	app.packer = archive.NewPacker(logger)
	app.randomizer = prompt.NewRandomizer()

	logger.Info("application initialized")
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Close()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
