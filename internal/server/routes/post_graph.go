package routes

import (
	"encoding/json"
	"net/http"

	"github.com/atlas-cmdb/backend/internal/queue"
	"github.com/atlas-cmdb/backend/internal/server/middleware"
	"github.com/atlas-cmdb/backend/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SeedGraphHandler queues a job that replaces the graph with the sample
// CMDB dataset. With embed set, an embedding job is chained once the seed
// job finishes.
func SeedGraphHandler(c echo.Context) error {
	type seedRequest struct {
		Embed bool `json:"embed"`
	}

	type seedResponse struct {
		Message string `json:"message"`
	}

	data := new(seedRequest)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, seedResponse{
			Message: "Invalid request body",
		})
	}

	queueData := queue.QueueSeedMsg{
		Message: "Seed sample graph",
		Embed:   data.Embed,
	}
	msgBytes, err := json.Marshal(queueData)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, seedResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.SeedQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to seed_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, seedResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, seedResponse{
		Message: "Seed job queued",
	})
}

// EmbedGraphHandler queues a job that computes embeddings for every node
// still missing one.
func EmbedGraphHandler(c echo.Context) error {
	type embedResponse struct {
		Message string `json:"message"`
	}

	queueData := queue.QueueEmbedMsg{
		Message: "Embed graph nodes",
	}
	msgBytes, err := json.Marshal(queueData)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, embedResponse{
			Message: "Internal server error",
		})
	}

	ch := c.(*middleware.AppContext).App.Queue
	if err := queue.PublishFIFO(ch, queue.EmbedQueue, msgBytes); err != nil {
		logger.Error("Failed to publish to embed_queue", "err", err)
		return c.JSON(http.StatusInternalServerError, embedResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, embedResponse{
		Message: "Embedding job queued",
	})
}
