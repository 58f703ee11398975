package pgx

import (
	"context"
	"fmt"

	"github.com/atlas-cmdb/backend/pkg/graph"
	"github.com/atlas-cmdb/backend/pkg/store"

	"github.com/pgvector/pgvector-go"
)

// TopKByEmbedding returns up to k nodes ordered by cosine similarity to the
// query embedding, descending. The similarity score is 1 minus the cosine
// distance reported by pgvector.
func (s *GraphDBStore) TopKByEmbedding(
	ctx context.Context,
	embedding []float32,
	k int,
) ([]graph.Node, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		SELECT public_id, label, props, 1 - (embedding <=> $1) AS score
		FROM nodes
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar nodes: %w", err)
	}
	defer rows.Close()

	nodes := make([]graph.Node, 0, k)
	for rows.Next() {
		var (
			publicID string
			label    string
			props    map[string]any
			score    float64
		)
		if err := rows.Scan(&publicID, &label, &props, &score); err != nil {
			return nil, fmt.Errorf("failed to scan similar node: %w", err)
		}
		if props == nil {
			props = map[string]any{}
		}
		nodes = append(nodes, graph.Node{
			ID:         publicID,
			Labels:     []string{label},
			Properties: props,
			Score:      score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read similar nodes: %w", err)
	}

	return nodes, nil
}

// IncidentRelationships returns edges touching any of the given node ids,
// capped at limit. The seed ids are ranked by their position in nodeIDs;
// rows are ordered by that rank, then relationship type, then edge id, so
// the truncation under the cap is deterministic.
func (s *GraphDBStore) IncidentRelationships(
	ctx context.Context,
	nodeIDs []string,
	limit int,
) ([]store.IncidentEdge, error) {
	if len(nodeIDs) == 0 || limit <= 0 {
		return nil, nil
	}

	rows, err := s.conn.Query(ctx, `
		WITH seeds AS (
			SELECT n.id, n.public_id, ord.rank
			FROM nodes n
			JOIN unnest($1::text[]) WITH ORDINALITY AS ord(public_id, rank)
				ON ord.public_id = n.public_id
		)
		SELECT
			s.public_id AS seed_id,
			e.rel_type,
			e.props,
			o.public_id AS other_id,
			o.label AS other_label,
			o.props AS other_props,
			(e.source_id = s.id) AS outgoing
		FROM seeds s
		JOIN edges e ON e.source_id = s.id OR e.target_id = s.id
		JOIN nodes o ON o.id = CASE WHEN e.source_id = s.id THEN e.target_id ELSE e.source_id END
		ORDER BY s.rank, e.rel_type, e.id
		LIMIT $2
	`, nodeIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query incident relationships: %w", err)
	}
	defer rows.Close()

	edges := make([]store.IncidentEdge, 0, limit)
	for rows.Next() {
		var (
			seedID     string
			relType    string
			relProps   map[string]any
			otherID    string
			otherLabel string
			otherProps map[string]any
			outgoing   bool
		)
		if err := rows.Scan(&seedID, &relType, &relProps, &otherID, &otherLabel, &otherProps, &outgoing); err != nil {
			return nil, fmt.Errorf("failed to scan incident relationship: %w", err)
		}
		if relProps == nil {
			relProps = map[string]any{}
		}
		if otherProps == nil {
			otherProps = map[string]any{}
		}
		edges = append(edges, store.IncidentEdge{
			SeedID:     seedID,
			Type:       relType,
			Properties: relProps,
			Other: graph.Node{
				ID:         otherID,
				Labels:     []string{otherLabel},
				Properties: otherProps,
			},
			Outgoing: outgoing,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read incident relationships: %w", err)
	}

	return edges, nil
}
