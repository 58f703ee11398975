// Package retriever turns a natural-language question into a ranked,
// deduplicated, bounded subgraph of the configuration graph: a vector
// similarity search over node embeddings followed by one-hop neighborhood
// expansion.
package retriever

import (
	"context"
	"fmt"

	"github.com/atlas-cmdb/backend/pkg/ai"
	"github.com/atlas-cmdb/backend/pkg/graph"
	"github.com/atlas-cmdb/backend/pkg/store"
)

// MaxRelationships caps the number of relationships in a single retrieval
// result. There is no pagination; callers needing more must re-query with
// a broader k. The store orders expansion rows by seed-node rank, then
// relationship type, then edge id, so which rows survive the cap is
// deterministic.
const MaxRelationships = 50

// GraphRetriever issues the similarity query, expands to one-hop
// neighbors, deduplicates and bounds the result. It only depends on the
// abstract embedding capability, not on a concrete provider.
//
// A GraphRetriever is stateless and safe for concurrent use.
type GraphRetriever struct {
	embedClient ai.EmbedClient
	storeClient store.GraphStore
}

// NewGraphRetriever creates a retriever over the given embedding client
// and graph store.
func NewGraphRetriever(embedClient ai.EmbedClient, storeClient store.GraphStore) *GraphRetriever {
	return &GraphRetriever{
		embedClient: embedClient,
		storeClient: storeClient,
	}
}

// Retrieve assembles the relevant subgraph for a question.
//
// The question is embedded (failures propagate, no local retry), the top-k
// most similar nodes are fetched, and every relationship incident to a hit
// is expanded up to MaxRelationships. Neighbor nodes not among the hits
// are appended exactly once, in discovery order, with a 0.0 score sentinel
// and OriginNeighbor. Zero similarity hits is a valid, non-error outcome
// yielding an empty-relationship result.
func (r *GraphRetriever) Retrieve(
	ctx context.Context,
	question string,
	k int,
) (*graph.RetrievalResult, error) {
	embedding, err := r.embedClient.GenerateEmbedding(ctx, []byte(question))
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := r.storeClient.TopKByEmbedding(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar nodes: %w", err)
	}

	hitIDs := make(map[string]struct{}, len(hits))
	for i := range hits {
		hits[i].Origin = graph.OriginSimilar
		stripEmbedding(hits[i].Properties)
		hitIDs[hits[i].ID] = struct{}{}
	}

	result := &graph.RetrievalResult{
		Question:      question,
		Nodes:         hits,
		Relationships: []graph.Relationship{},
		NumSimilar:    len(hits),
	}
	if len(hits) == 0 {
		result.Nodes = []graph.Node{}
		return result, nil
	}

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ID)
	}

	incident, err := r.storeClient.IncidentRelationships(ctx, ids, MaxRelationships)
	if err != nil {
		return nil, fmt.Errorf("failed to expand neighbors: %w", err)
	}

	seenNeighbors := make(map[string]struct{})
	neighbors := make([]graph.Node, 0)
	for _, edge := range incident {
		// Normalize direction: source is always the node the edge
		// originates from, regardless of which side the seed is on.
		sourceID, targetID := edge.SeedID, edge.Other.ID
		if !edge.Outgoing {
			sourceID, targetID = edge.Other.ID, edge.SeedID
		}
		result.Relationships = append(result.Relationships, graph.Relationship{
			SourceID:   sourceID,
			TargetID:   targetID,
			Type:       edge.Type,
			Properties: edge.Properties,
		})

		if _, isHit := hitIDs[edge.Other.ID]; isHit {
			continue
		}
		if _, seen := seenNeighbors[edge.Other.ID]; seen {
			continue
		}
		seenNeighbors[edge.Other.ID] = struct{}{}

		neighbor := edge.Other
		neighbor.Score = 0.0
		neighbor.Origin = graph.OriginNeighbor
		stripEmbedding(neighbor.Properties)
		neighbors = append(neighbors, neighbor)
	}

	result.Nodes = append(result.Nodes, neighbors...)
	result.NumNeighbors = len(neighbors)

	return result, nil
}

// stripEmbedding removes the embedding vector from a property map. The
// vector is large and must never be serialized to a caller.
func stripEmbedding(props map[string]any) {
	delete(props, "embedding")
}
