package pipeline

import (
	"fmt"
	"strings"

	"github.com/atlas-cmdb/backend/pkg/graph"
)

// assemblePayload reduces a terminal pipeline state to the externally
// visible answer payload. Sources are restricted to directly-retrieved
// nodes; neighbor nodes never appear as evidence. The full retrieval
// result rides along as graph data for visualization.
func assemblePayload(state PipelineState) graph.AnswerPayload {
	if state.Err != "" {
		return graph.AnswerPayload{
			Question: state.Question,
			Answer:   fmt.Sprintf("Error: %s", state.Err),
			Sources:  []graph.Source{},
			GraphData: &graph.RetrievalResult{
				Question:      state.Question,
				Nodes:         []graph.Node{},
				Relationships: []graph.Relationship{},
			},
			Error: state.Err,
		}
	}

	sources := make([]graph.Source, 0)
	for _, node := range state.Result.Nodes {
		if node.Origin != graph.OriginSimilar {
			continue
		}
		name := "Unknown"
		if n, ok := node.Properties["name"].(string); ok && n != "" {
			name = n
		}
		sources = append(sources, graph.Source{
			Name:       name,
			Type:       strings.Join(node.Labels, ":"),
			Properties: node.Properties,
		})
	}

	return graph.AnswerPayload{
		Question:  state.Question,
		Answer:    state.Answer,
		Sources:   sources,
		GraphData: state.Result,
	}
}
