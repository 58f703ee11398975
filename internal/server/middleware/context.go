package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/atlas-cmdb/backend/pkg/ai"
	"github.com/atlas-cmdb/backend/pkg/pipeline"
)

// App carries the per-process dependencies handlers need: the database
// pool, the queue channel for publishing jobs, the shared AI client and
// the answer pipeline built at startup.
type App struct {
	DBConn   *pgxpool.Pool
	Queue    *amqp091.Channel
	AiClient ai.GraphAIClient
	Pipeline *pipeline.AnswerPipeline
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	aiClient ai.GraphAIClient,
	answerPipeline *pipeline.AnswerPipeline,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				DBConn:   db,
				Queue:    queue,
				AiClient: aiClient,
				Pipeline: answerPipeline,
			}
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
