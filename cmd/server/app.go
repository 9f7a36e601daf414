package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sortlab/sortlab-api/internal/config"
	"github.com/sortlab/sortlab-api/internal/events"
	"github.com/sortlab/sortlab-api/internal/generation"
	"github.com/sortlab/sortlab-api/internal/platform/gemini"
	"github.com/sortlab/sortlab-api/internal/platform/postgres"
	"github.com/sortlab/sortlab-api/internal/service"
	"github.com/sortlab/sortlab-api/internal/service/auth"
	"github.com/sortlab/sortlab-api/internal/store"
	"github.com/sortlab/sortlab-api/internal/task"
	"golang.org/x/crypto/bcrypt"
)

// application holds the shared application dependencies so initialization and
// cleanup live in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore    store.UserStore
	studyStore   store.StudyStore
	resultStore  store.ResultStore
	insightStore store.InsightStore
	taskStore    task.TaskStore

	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	userService      service.UserService
	studyService     service.StudyService
	analysisService  service.AnalysisService
	insightService   service.InsightService
	summarizer       generation.Summarizer

	eventEmitter events.EventEmitter
	taskRunner   *task.TaskRunner
}

// newApplication wires up every dependency from configuration. The context is
// used for initialization work such as the LLM client handshake.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	bcryptCost := cfg.Auth.BcryptCost
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	app.userStore = postgres.NewPostgresUserStore(db, bcryptCost, logger)
	app.studyStore = postgres.NewPostgresStudyStore(db, logger)
	app.resultStore = postgres.NewPostgresResultStore(db, logger)
	app.insightStore = postgres.NewPostgresInsightStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	app.userService = service.NewUserService(app.userStore, db, logger)

	app.studyService, err = service.NewStudyService(
		db,
		app.studyStore,
		app.resultStore,
		app.insightStore,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create study service: %w", err)
	}

	app.analysisService = service.NewAnalysisService(app.studyService, logger)
	app.insightService = service.NewInsightService(db, app.insightStore, app.studyService, logger)

	app.taskRunner = task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)

	if err := app.setupInsightGeneration(ctx); err != nil {
		return nil, err
	}

	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// setupInsightGeneration wires the LLM summarizer, task factory, and event
// handler. Without a Gemini API key the insight pipeline is disabled and
// result submission proceeds without summaries.
func (app *application) setupInsightGeneration(ctx context.Context) error {
	if app.config.LLM.GeminiAPIKey == "" {
		app.logger.Warn("no Gemini API key configured, insight generation disabled")
		return nil
	}

	summarizer, err := gemini.NewGeminiSummarizer(
		ctx,
		app.logger.With("component", "llm_summarizer"),
		app.config.LLM,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM summarizer: %w", err)
	}
	app.summarizer = summarizer

	factory := task.NewInsightGenerationTaskFactory(
		app.insightService,
		app.studyService,
		app.summarizer,
		app.logger,
	)
	handler := task.NewTaskFactoryEventHandler(factory, app.taskRunner, app.logger)
	app.eventEmitter.RegisterHandler(handler)

	// Must precede taskRunner.Start so recovery can rebuild persisted rows.
	app.taskRunner.RegisterReconstructor(task.TaskTypeInsightGeneration, factory.ReconstructTask)

	app.logger.Info("insight generation pipeline initialized",
		"model", app.config.LLM.ModelName)
	return nil
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
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
