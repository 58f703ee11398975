package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/atlas-cmdb/backend/internal/seed"
	"github.com/atlas-cmdb/backend/pkg/logger"
	graphstorage "github.com/atlas-cmdb/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QueueSeedMsg asks the worker to replace the graph with the sample CMDB
// dataset. Embed controls whether an embedding job is chained afterwards.
type QueueSeedMsg struct {
	Message string `json:"message"`
	Embed   bool   `json:"embed"`
}

func ProcessSeedMessage(
	ctx context.Context,
	conn *pgxpool.Pool,
	publish func(queueName string, data []byte) error,
	msg string,
) error {
	data := new(QueueSeedMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to unmarshal seed message: %w", err)
	}

	startTime := time.Now()
	storeClient := graphstorage.NewGraphDBStoreWithConnection(conn)

	if err := seed.Load(ctx, storeClient); err != nil {
		return fmt.Errorf("failed to load sample graph: %w", err)
	}

	logger.Info("[Seed] Sample graph loaded", "duration", time.Since(startTime).Round(time.Millisecond))

	if data.Embed {
		embedMsg, err := json.Marshal(QueueEmbedMsg{Message: "Embed after seed"})
		if err != nil {
			return fmt.Errorf("failed to marshal embed message: %w", err)
		}
		if err := publish(EmbedQueue, embedMsg); err != nil {
			return fmt.Errorf("failed to queue embedding job: %w", err)
		}
		logger.Info("[Seed] Embedding job queued")
	}

	return nil
}
