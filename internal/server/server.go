// Package server hosts the HTTP front door of the backend: the question
// answering endpoint plus the graph population and health surfaces.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlas-cmdb/backend/internal/queue"
	mid "github.com/atlas-cmdb/backend/internal/server/middleware"
	"github.com/atlas-cmdb/backend/internal/util"
	"github.com/atlas-cmdb/backend/pkg/ai"
	oai "github.com/atlas-cmdb/backend/pkg/ai/ollama"
	gai "github.com/atlas-cmdb/backend/pkg/ai/openai"
	"github.com/atlas-cmdb/backend/pkg/logger"
	"github.com/atlas-cmdb/backend/pkg/pipeline"
	"github.com/atlas-cmdb/backend/pkg/retriever"
	graphstorage "github.com/atlas-cmdb/backend/pkg/store/pgx"

	"github.com/go-playground/validator"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// PGPoolConfig parses databaseURL into a pool config that registers the
// pgvector types on every new connection. AfterConnect has to be set
// before the pool is built; setting it on a running pool's config copy
// has no effect.
func PGPoolConfig(databaseURL string) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	return config, nil
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations()

	poolConfig, err := PGPoolConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to parse database config", "err", err)
	}
	conn, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	err = queue.SetupQueues(ch, queue.QueueNames)
	if err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	aiClient := NewAIClientFromEnv()

	storeClient := graphstorage.NewGraphDBStoreWithConnection(conn)
	retrieverClient := retriever.NewGraphRetriever(aiClient, storeClient)

	fallbackOnly := util.GetEnvBool("PIPELINE_FALLBACK_ONLY", false)
	var primary pipeline.Generator
	if !fallbackOnly {
		primary, err = pipeline.NewLLMGenerator(pipeline.NewLLMGeneratorParams{
			Client:             aiClient,
			TokenEncoding:      util.GetEnvString("AI_TOKEN_ENCODING", ""),
			ContextTokenBudget: int(util.GetEnvNumeric("AI_CONTEXT_TOKEN_BUDGET", 0)),
		})
		if err != nil {
			logger.Fatal("Failed to create generator", "err", err)
		}
	}

	answerPipeline, err := pipeline.NewAnswerPipeline(pipeline.NewAnswerPipelineParams{
		Retriever:    retrieverClient,
		Primary:      primary,
		TopK:         int(util.GetEnvNumeric("RETRIEVAL_TOP_K", 0)),
		FallbackOnly: fallbackOnly,
	})
	if err != nil {
		logger.Fatal("Failed to create answer pipeline", "err", err)
	}

	e.Use(mid.AppContextMiddleware(conn, ch, aiClient, answerPipeline))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}

// NewAIClientFromEnv builds the shared AI client from environment
// configuration. AI_ADAPTER selects the backend; anything other than
// "ollama" means the OpenAI-compatible client.
func NewAIClientFromEnv() ai.GraphAIClient {
	adapter := util.GetEnv("AI_ADAPTER")

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Failed to create Ollama client", "err", err)
		}
		return client
	default:
		return gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),

			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),
			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
		})
	}
}

func runMigrations() {
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "migrations")
	m, err := migrate.New("file://"+migrationsPath, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to initialize migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
	logger.Info("Migrations up to date")
}
