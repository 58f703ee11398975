package store

import (
	"context"

	"github.com/atlas-cmdb/backend/pkg/graph"
)

// IncidentEdge is one traversal row returned by the store: an edge touching
// a seed node, together with the node on the other side. Direction is
// reported relative to the seed (Outgoing is true when the edge originates
// at the seed node); normalization into source/target order is the
// retriever's job.
type IncidentEdge struct {
	SeedID     string
	Type       string
	Properties map[string]any
	Other      graph.Node
	Outgoing   bool
}

// NodeRecord is the write-side shape of a graph node, used by the one-time
// population and offline embedding jobs.
type NodeRecord struct {
	PublicID   string
	Label      string
	Properties map[string]any
}

// EdgeRecord is the write-side shape of a directed relationship between two
// nodes, referenced by their public ids.
type EdgeRecord struct {
	SourcePublicID string
	TargetPublicID string
	Type           string
	Properties     map[string]any
}

// GraphStore defines the storage boundary of the answer pipeline: top-k
// similarity search over node embeddings and one-hop relationship
// traversal, plus the population surface used by the worker jobs.
//
// Implementations must be safe for concurrent use by multiple in-flight
// requests.
type GraphStore interface {
	// TopKByEmbedding returns up to k nodes ordered by similarity to the
	// given embedding, descending. Each node carries its full property map
	// and store-native similarity score.
	TopKByEmbedding(ctx context.Context, embedding []float32, k int) ([]graph.Node, error)

	// IncidentRelationships returns edges incident to any of the given node
	// ids, capped at limit. Rows are ordered by seed-node rank (the order of
	// nodeIDs), then relationship type, then edge id, so truncation is
	// deterministic and store-independent.
	IncidentRelationships(ctx context.Context, nodeIDs []string, limit int) ([]IncidentEdge, error)

	SaveNodes(ctx context.Context, nodes []NodeRecord) error
	SaveEdges(ctx context.Context, edges []EdgeRecord) error
	ClearGraph(ctx context.Context) error

	ListNodesMissingEmbedding(ctx context.Context, limit int) ([]NodeRecord, error)
	SetNodeEmbedding(ctx context.Context, publicID string, embedding []float32) error
}
