package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atlas-cmdb/backend/internal/util"
	"github.com/atlas-cmdb/backend/pkg/ai"
	"github.com/atlas-cmdb/backend/pkg/logger"
	"github.com/atlas-cmdb/backend/pkg/store"
	graphstorage "github.com/atlas-cmdb/backend/pkg/store/pgx"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// QueueEmbedMsg asks the worker to compute embeddings for every node that
// does not have one yet.
type QueueEmbedMsg struct {
	Message string `json:"message"`
}

const (
	embedBatchSize     = 100
	embedMaxTries      = 5
	embedRetryBaseWait = 2 * time.Second
)

func ProcessEmbedMessage(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	conn *pgxpool.Pool,
	msg string,
) error {
	data := new(QueueEmbedMsg)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("failed to unmarshal embed message: %w", err)
	}

	storeClient := graphstorage.NewGraphDBStoreWithConnection(conn)
	parallelMax := int(util.GetEnvNumeric("AI_EMBED_PARALLEL", 4))

	total := 0
	for {
		nodes, err := storeClient.ListNodesMissingEmbedding(ctx, embedBatchSize)
		if err != nil {
			return fmt.Errorf("failed to list nodes missing embeddings: %w", err)
		}
		if len(nodes) == 0 {
			break
		}

		if err := embedBatch(ctx, aiClient, storeClient, nodes, parallelMax); err != nil {
			return err
		}
		total += len(nodes)
		logger.Info("[Embed] Batch embedded", "count", len(nodes), "total", total)
	}

	logger.Info("[Embed] All nodes embedded", "total", total)
	return nil
}

func embedBatch(
	ctx context.Context,
	aiClient ai.GraphAIClient,
	storeClient store.GraphStore,
	nodes []store.NodeRecord,
	parallelMax int,
) error {
	described := make([]store.NodeRecord, 0, len(nodes))
	mergeMu := sync.Mutex{}

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelMax)
	for _, node := range nodes {
		n := node
		eg.Go(func() error {
			description := NodeDescription(n)

			embedding, err := util.RetryWithBackoff(
				gCtx,
				embedMaxTries,
				embedRetryBaseWait,
				func(retryCtx context.Context) ([]float32, error) {
					return aiClient.GenerateEmbedding(retryCtx, []byte(description))
				},
			)
			if err != nil {
				return fmt.Errorf("failed to embed node %s: %w", n.PublicID, err)
			}

			if err := storeClient.SetNodeEmbedding(gCtx, n.PublicID, embedding); err != nil {
				return fmt.Errorf("failed to store embedding for node %s: %w", n.PublicID, err)
			}

			props := make(map[string]any, len(n.Properties)+1)
			for k, v := range n.Properties {
				props[k] = v
			}
			props["description"] = description

			mergeMu.Lock()
			described = append(described, store.NodeRecord{
				PublicID:   n.PublicID,
				Label:      n.Label,
				Properties: props,
			})
			mergeMu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	// Keep the rendered description on the node so callers see the exact
	// text the embedding was computed from.
	if err := storeClient.SaveNodes(ctx, described); err != nil {
		return fmt.Errorf("failed to save node descriptions: %w", err)
	}
	return nil
}

// NodeDescription renders the text a node embedding is computed from:
// the label followed by every property as "key: value", comma separated.
// Keys are sorted so the same node always renders the same text.
func NodeDescription(node store.NodeRecord) string {
	keys := make([]string, 0, len(node.Properties))
	for key := range node.Properties {
		if key == "embedding" || key == "description" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", key, node.Properties[key]))
	}

	if len(parts) == 0 {
		return node.Label
	}
	return fmt.Sprintf("%s - %s", node.Label, strings.Join(parts, ", "))
}
