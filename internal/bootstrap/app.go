package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"innovation-backend/internal/ai"
	"innovation-backend/internal/ai/gemini"
	"innovation-backend/internal/ai/openai"
	"innovation-backend/internal/drafts"
	"innovation-backend/internal/exports"
	"innovation-backend/internal/planitems"
	"innovation-backend/internal/plans"
	"innovation-backend/internal/queue"
	"innovation-backend/internal/shared/config"
	"innovation-backend/internal/shared/server"
	"innovation-backend/internal/shared/server/middleware"
	"innovation-backend/internal/shared/storage/backend"
	"innovation-backend/internal/shared/storage/db"
	"innovation-backend/internal/shared/storage/object"
	localstore "innovation-backend/internal/shared/storage/object/local"
	s3store "innovation-backend/internal/shared/storage/object/s3"
	"innovation-backend/internal/taxonomy"
	"innovation-backend/internal/templates"
)

const (
	aiTimeout    = 90 * time.Second
	closeTimeout = 10 * time.Second
)

// App holds shared dependencies and the router built from them.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Backend backend.Client
	Store   object.ObjectStore
	Queue   queue.Client

	Items     *planitems.Stores
	Plans     *plans.Service
	Templates *templates.Service
	Drafts    *drafts.Autosaver
	Exports   *exports.Service
	AI        *ai.Service

	draftStore drafts.Store
}

// Build wires every service from cfg and mounts the HTTP routes.
func Build(cfg config.Config) (*App, error) {
	return build(cfg, false)
}

// BuildWorker is Build for the export worker: a smaller database pool shared
// by every in-flight job.
func BuildWorker(cfg config.Config) (*App, error) {
	return build(cfg, true)
}

func build(cfg config.Config, worker bool) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	app := &App{Config: cfg}

	client, sqlDB, err := buildBackend(ctx, cfg, worker)
	if err != nil {
		return nil, err
	}
	app.Backend = client
	app.DB = sqlDB

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Queue = queueClient

	draftStore, err := buildDraftStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.draftStore = draftStore

	aiClient, err := buildAIClient(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	buildServices(app, aiClient)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		PlanHandler:     plans.NewHandler(app.Plans),
		ItemStores:      app.Items,
		TemplateHandler: templates.NewHandler(app.Templates),
		DraftHandler:    drafts.NewHandler(app.Drafts),
		ExportHandler:   exports.NewHandler(app.Exports),
		AIHandler:       ai.NewHandler(app.AI),
		Limiter:         middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close flushes pending drafts and releases storage handles.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	var errs []error
	if a.Drafts != nil {
		errs = append(errs, a.Drafts.Close(ctx))
	}
	if closer, ok := a.draftStore.(interface{ Close() error }); ok {
		errs = append(errs, closer.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildServices(app *App, aiClient ai.Client) {
	cfg := app.Config

	app.Items = planitems.NewStores(app.Backend, cfg.BulkSaveConcurrency)
	app.Plans = &plans.Service{
		Repo:  plans.NewRepo(app.Backend),
		Items: app.Items,
	}
	app.Templates = &templates.Service{
		Repo:    templates.NewRepo(app.Backend),
		Plans:   app.Plans,
		Catalog: taxonomy.Default(),
	}
	app.Drafts = drafts.NewAutosaver(app.draftStore, drafts.Options{
		Delay:     cfg.DraftAutosaveDelay,
		Freshness: cfg.DraftFreshnessWindow,
	})
	app.Exports = &exports.Service{
		Repo:  exports.NewRepo(app.Backend),
		Plans: app.Plans,
		Store: app.Store,
		Queue: app.Queue,
	}
	app.AI = &ai.Service{
		Client: aiClient,
		Plans:  app.Plans,
	}
}

func buildBackend(ctx context.Context, cfg config.Config, worker bool) (backend.Client, *sql.DB, error) {
	switch cfg.Backend {
	case "postgres":
		sqlDB, err := buildDB(ctx, cfg, worker)
		if err != nil {
			return nil, nil, err
		}
		if sqlDB == nil {
			return backend.NewMemory(), nil, nil
		}
		return backend.NewPG(sqlDB), sqlDB, nil
	case "rest":
		client, err := backend.NewREST(ctx, backend.RESTOptions{
			BaseURL: cfg.BackendURL,
			APIKey:  cfg.BackendAPIKey,
			RPS:     cfg.BackendRPS,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	default:
		return backend.NewMemory(), nil, nil
	}
}

func buildDB(ctx context.Context, cfg config.Config, worker bool) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory backend")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if worker {
		opts := db.OptionsFromEnv(db.DefaultWorkerOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory backend: %v", err)
			return nil, nil
		}
		return nil, err
	}

	// Deployed environments migrate through cmd/migrate.
	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQueue returns nil when no queue is configured; exports then render inline.
func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.ExportQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.ExportQueueURL, cfg.AWSRegion)
}

func buildDraftStore(ctx context.Context, cfg config.Config) (drafts.Store, error) {
	if strings.TrimSpace(cfg.DraftsPath) == "" {
		return drafts.NewMemoryStore(), nil
	}
	return drafts.OpenSQLite(ctx, cfg.DraftsPath)
}

// buildAIClient returns a nil client when no provider is configured.
func buildAIClient(ctx context.Context, cfg config.Config) (ai.Client, error) {
	switch cfg.AIProvider {
	case "openai":
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.AIModel, aiTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, gemini.Options{APIKey: cfg.GeminiAPIKey, Model: cfg.AIModel})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
