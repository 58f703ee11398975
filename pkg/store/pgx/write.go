package pgx

import (
	"context"
	"fmt"

	"github.com/atlas-cmdb/backend/internal/util"
	"github.com/atlas-cmdb/backend/pkg/store"

	"github.com/pgvector/pgvector-go"
)

// SaveNodes upserts a batch of nodes keyed by public id. Existing nodes
// keep their embedding; label and properties are replaced.
func (s *GraphDBStore) SaveNodes(ctx context.Context, nodes []store.NodeRecord) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, node := range nodes {
		_, err := tx.Exec(ctx, `
			INSERT INTO nodes (public_id, label, props)
			VALUES ($1, $2, $3)
			ON CONFLICT (public_id) DO UPDATE
			SET label = EXCLUDED.label, props = EXCLUDED.props
		`, node.PublicID, util.SanitizePostgresText(node.Label), sanitizeProps(node.Properties))
		if err != nil {
			return fmt.Errorf("failed to save node %q: %w", node.PublicID, err)
		}
	}

	return tx.Commit(ctx)
}

// SaveEdges inserts a batch of directed relationships. Endpoints are
// resolved by public id; an edge referencing an unknown node fails the
// whole batch.
func (s *GraphDBStore) SaveEdges(ctx context.Context, edges []store.EdgeRecord) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, edge := range edges {
		tag, err := tx.Exec(ctx, `
			INSERT INTO edges (source_id, target_id, rel_type, props)
			SELECT src.id, tgt.id, $3, $4
			FROM nodes src, nodes tgt
			WHERE src.public_id = $1 AND tgt.public_id = $2
		`, edge.SourcePublicID, edge.TargetPublicID, util.SanitizePostgresText(edge.Type), sanitizeProps(edge.Properties))
		if err != nil {
			return fmt.Errorf("failed to save edge %s-[%s]->%s: %w",
				edge.SourcePublicID, edge.Type, edge.TargetPublicID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("edge %s-[%s]->%s references an unknown node",
				edge.SourcePublicID, edge.Type, edge.TargetPublicID)
		}
	}

	return tx.Commit(ctx)
}

// ClearGraph removes every node and relationship.
func (s *GraphDBStore) ClearGraph(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `TRUNCATE edges, nodes RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}
	return nil
}

// ListNodesMissingEmbedding returns up to limit nodes that have no stored
// embedding yet, in insertion order.
func (s *GraphDBStore) ListNodesMissingEmbedding(
	ctx context.Context,
	limit int,
) ([]store.NodeRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT public_id, label, props
		FROM nodes
		WHERE embedding IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes missing embeddings: %w", err)
	}
	defer rows.Close()

	nodes := make([]store.NodeRecord, 0)
	for rows.Next() {
		var node store.NodeRecord
		if err := rows.Scan(&node.PublicID, &node.Label, &node.Properties); err != nil {
			return nil, fmt.Errorf("failed to scan node record: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read node records: %w", err)
	}

	return nodes, nil
}

// SetNodeEmbedding stores the embedding vector for a node.
func (s *GraphDBStore) SetNodeEmbedding(
	ctx context.Context,
	publicID string,
	embedding []float32,
) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE nodes SET embedding = $2 WHERE public_id = $1
	`, publicID, pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("failed to set embedding for node %q: %w", publicID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("node %q not found", publicID)
	}
	return nil
}

func sanitizeProps(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		if s, ok := value.(string); ok {
			out[key] = util.SanitizePostgresText(s)
			continue
		}
		out[key] = value
	}
	return out
}
