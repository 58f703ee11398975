package retriever

import (
	"strings"
	"testing"

	"github.com/atlas-cmdb/backend/pkg/graph"
)

func TestFormatContext_NodesAndRelationships(t *testing.T) {
	result := &graph.RetrievalResult{
		Question: "where is the db server located?",
		Nodes: []graph.Node{
			{
				ID:     "db",
				Labels: []string{"Asset"},
				Properties: map[string]any{
					"name":   "DB-Server",
					"type":   "Database",
					"os":     "Linux",
					"status": "Running",
				},
				Score:  0.92,
				Origin: graph.OriginSimilar,
			},
			{
				ID:     "dc1",
				Labels: []string{"Location"},
				Properties: map[string]any{
					"name":   "Data-Center-1",
					"region": "US-East",
				},
				Origin: graph.OriginNeighbor,
			},
		},
		Relationships: []graph.Relationship{
			{SourceID: "db", TargetID: "dc1", Type: "LOCATED_IN", Properties: map[string]any{}},
		},
	}

	got := FormatContext(result)

	want := "# Graph Context\n\n" +
		"## Nodes:\n" +
		"- [Asset] DB-Server\n" +
		"  - os: Linux\n" +
		"  - status: Running\n" +
		"  - type: Database\n" +
		"- [Location] Data-Center-1\n" +
		"  - region: US-East\n\n" +
		"## Relationships:\n" +
		"- DB-Server -[LOCATED_IN]-> Data-Center-1"
	if got != want {
		t.Fatalf("FormatContext mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatContext_SkipsInternalProperties(t *testing.T) {
	result := &graph.RetrievalResult{
		Nodes: []graph.Node{
			{
				ID:     "n1",
				Labels: []string{"Asset"},
				Properties: map[string]any{
					"name":        "Redis-Cache",
					"embedding":   []float32{0.1, 0.2},
					"description": "Asset - name: Redis-Cache",
					"type":        "Cache",
				},
			},
		},
		Relationships: []graph.Relationship{},
	}

	got := FormatContext(result)
	if strings.Contains(got, "embedding") {
		t.Fatal("expected embedding property to be skipped")
	}
	if strings.Contains(got, "description") {
		t.Fatal("expected description property to be skipped")
	}
	if !strings.Contains(got, "- type: Cache") {
		t.Fatalf("expected type property rendered, got:\n%s", got)
	}
}

func TestFormatContext_NoRelationshipsSection(t *testing.T) {
	result := &graph.RetrievalResult{
		Nodes: []graph.Node{
			{ID: "n1", Labels: []string{"Asset"}, Properties: map[string]any{"name": "DB-Server"}},
		},
		Relationships: []graph.Relationship{},
	}

	got := FormatContext(result)
	if strings.Contains(got, "## Relationships:") {
		t.Fatalf("expected no relationships section, got:\n%s", got)
	}
}

func TestFormatContext_DropsUnresolvableEndpoints(t *testing.T) {
	result := &graph.RetrievalResult{
		Nodes: []graph.Node{
			{ID: "db", Labels: []string{"Asset"}, Properties: map[string]any{"name": "DB-Server"}},
		},
		Relationships: []graph.Relationship{
			{SourceID: "db", TargetID: "ghost", Type: "DEPENDS_ON", Properties: map[string]any{}},
		},
	}

	got := FormatContext(result)
	if strings.Contains(got, "DEPENDS_ON") {
		t.Fatalf("expected relationship with unknown endpoint dropped from text, got:\n%s", got)
	}
}

func TestFormatContext_UnnamedNodeFallsBackInRelationship(t *testing.T) {
	result := &graph.RetrievalResult{
		Nodes: []graph.Node{
			{ID: "a", Labels: []string{"Asset"}, Properties: map[string]any{"name": "DB-Server"}},
			{ID: "b", Labels: []string{"Location"}, Properties: map[string]any{"region": "US-East"}},
		},
		Relationships: []graph.Relationship{
			{SourceID: "a", TargetID: "b", Type: "LOCATED_IN", Properties: map[string]any{}},
		},
	}

	got := FormatContext(result)
	if !strings.Contains(got, "- DB-Server -[LOCATED_IN]-> Node") {
		t.Fatalf("expected unnamed endpoint rendered as Node, got:\n%s", got)
	}
}
