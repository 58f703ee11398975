package graph

// NodeOrigin records why a node is part of a retrieval result.
//
// The similarity score alone cannot carry this distinction: depending on
// the distance metric a real similarity value can legitimately be zero or
// negative, so the origin is tracked as an explicit tag.
type NodeOrigin string

const (
	// OriginSimilar marks a node returned directly by the top-k vector query.
	OriginSimilar NodeOrigin = "similar"
	// OriginNeighbor marks a node reached only via one-hop expansion from a
	// similarity hit.
	OriginNeighbor NodeOrigin = "neighbor"
)

// Node represents a single node of the configuration graph as it appears
// in a retrieval result. A node can be an asset, a service, a user, a
// location or any other typed record.
//
// The first label is treated as the node's primary type. Properties never
// contain the embedding vector; it is stripped before a node leaves the
// retriever. Score is the store-native similarity value for similarity
// hits and the 0.0 sentinel for neighbors — Origin is authoritative.
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
	Score      float64        `json:"score"`
	Origin     NodeOrigin     `json:"origin"`
}

// Relationship represents a directed edge between two nodes of a retrieval
// result. Direction is normalized so that SourceID is always the node the
// edge originates from, independent of how the traversal query returned it.
//
// Both endpoint ids reference nodes present in the same result's node set.
type Relationship struct {
	SourceID   string         `json:"source"`
	TargetID   string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// RetrievalResult is the ranked, deduplicated, bounded subgraph assembled
// for one question. Nodes are ordered similarity hits first (in rank
// order), then neighbor nodes in discovery order.
//
// A result is created fresh per question and is immutable after
// construction.
type RetrievalResult struct {
	Question      string         `json:"question"`
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	NumSimilar    int            `json:"num_similar"`
	NumNeighbors  int            `json:"num_neighbors"`
}

// Source is the externally visible evidence record for an answer. Only
// similarity hits become sources; neighbor nodes never do.
type Source struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// AnswerPayload is the boundary shape returned to the HTTP layer. GraphData
// carries the full retrieval result for downstream visualization.
type AnswerPayload struct {
	Question  string           `json:"question"`
	Answer    string           `json:"answer"`
	Sources   []Source         `json:"sources"`
	GraphData *RetrievalResult `json:"graph_data"`
	Error     string           `json:"error,omitempty"`
}

// BestName resolves a display name for a node: the "name" property if
// present, otherwise the value of the lexically first property key,
// otherwise "unknown".
func (n Node) BestName() string {
	if name, ok := n.Properties["name"].(string); ok && name != "" {
		return name
	}
	var firstKey string
	for key := range n.Properties {
		if firstKey == "" || key < firstKey {
			firstKey = key
		}
	}
	if firstKey != "" {
		if s, ok := n.Properties[firstKey].(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// PrimaryLabel returns the node's first type label, or an empty string for
// an unlabeled node.
func (n Node) PrimaryLabel() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}
