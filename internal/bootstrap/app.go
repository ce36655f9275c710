package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"invoice-backend/internal/chats"
	"invoice-backend/internal/extract"
	"invoice-backend/internal/invoices"
	"invoice-backend/internal/llm"
	"invoice-backend/internal/llm/openai"
	"invoice-backend/internal/llm/tools"
	"invoice-backend/internal/shared/config"
	"invoice-backend/internal/shared/server"
	"invoice-backend/internal/shared/storage/db"
	"invoice-backend/internal/uploads"
	"invoice-backend/internal/usage"
)

const reasoningModelKey = "chat-model-reasoning"

// App holds shared dependencies wired from configuration.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	ChatsRepo    chats.Repo
	InvoicesRepo invoices.Repo
	UsageStore   usage.Store

	Provider llm.Provider

	ChatsService    *chats.Service
	InvoicesService *invoices.Service
	Pipeline        *extract.Pipeline

	ChatHandler     *chats.Handler
	InvoicesHandler *invoices.Handler
	UploadsHandler  *uploads.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg, DB: sqlDB}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		ChatHandler:     app.ChatHandler,
		InvoicesHandler: app.InvoicesHandler,
		UploadsHandler:  app.UploadsHandler,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.ChatsRepo = &chats.PGRepo{DB: app.DB}
		app.InvoicesRepo = &invoices.PGRepo{DB: app.DB}
		app.UsageStore = usage.NewPGStore(app.DB)
	} else {
		app.ChatsRepo = chats.NewMemoryRepo()
		app.InvoicesRepo = invoices.NewMemoryRepo()
		app.UsageStore = usage.NewMemoryStore()
	}

	provider, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.ModelNames)
	if err != nil {
		return err
	}
	if cfg.OpenAIBaseURL != "" {
		provider.WithBaseURL(strings.TrimSuffix(cfg.OpenAIBaseURL, "/") + "/chat/completions")
	}
	app.Provider = provider

	app.InvoicesService = &invoices.Service{Repo: app.InvoicesRepo}

	app.ChatsService = &chats.Service{
		Repo:       app.ChatsRepo,
		Invoices:   app.InvoicesService,
		Accountant: usage.NewAccountant(cfg.ModelEncodings, cfg.CostPerToken),
		Usage:      app.UsageStore,
		Provider:   app.Provider,
		Tools:      tools.NewRegistry(tools.NewWeather()),

		ReasoningModelKey: reasoningModelKey,
		RejectionKeywords: cfg.RejectionKeywords,
	}

	app.Pipeline = extract.NewPipeline(extract.Config{
		TesseractPath: cfg.TesseractPath,
		TesseractLang: cfg.TesseractLang,
		RasterDPI:     cfg.RasterDPI,
	})

	app.ChatHandler = chats.NewHandler(app.ChatsService)
	app.InvoicesHandler = invoices.NewHandler(app.InvoicesRepo)
	app.UploadsHandler = uploads.NewHandler(app.Pipeline, cfg.RejectionKeywords)
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
