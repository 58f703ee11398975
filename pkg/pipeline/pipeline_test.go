package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atlas-cmdb/backend/pkg/graph"
)

type mockRetriever struct {
	result *graph.RetrievalResult
	err    error
	calls  int
	lastK  int
}

func (m *mockRetriever) Retrieve(ctx context.Context, question string, k int) (*graph.RetrievalResult, error) {
	m.calls++
	m.lastK = k
	return m.result, m.err
}

type mockGenerator struct {
	answer string
	err    error
	calls  int
}

func (m *mockGenerator) Generate(ctx context.Context, question string, contextText string) (string, error) {
	m.calls++
	return m.answer, m.err
}

func sampleResult(question string) *graph.RetrievalResult {
	return &graph.RetrievalResult{
		Question: question,
		Nodes: []graph.Node{
			{
				ID:         "db",
				Labels:     []string{"Asset"},
				Properties: map[string]any{"name": "DB-Server", "type": "Database"},
				Score:      0.92,
				Origin:     graph.OriginSimilar,
			},
			{
				ID:         "dc1",
				Labels:     []string{"Location"},
				Properties: map[string]any{"name": "Data-Center-1"},
				Origin:     graph.OriginNeighbor,
			},
		},
		Relationships: []graph.Relationship{
			{SourceID: "db", TargetID: "dc1", Type: "LOCATED_IN", Properties: map[string]any{}},
		},
		NumSimilar:   1,
		NumNeighbors: 1,
	}
}

func TestNewAnswerPipeline_RequiresRetriever(t *testing.T) {
	_, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Primary: &mockGenerator{},
	})
	if err == nil {
		t.Fatal("expected error for missing retriever, got nil")
	}
}

func TestNewAnswerPipeline_RequiresPrimaryUnlessFallbackOnly(t *testing.T) {
	_, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: &mockRetriever{},
	})
	if err == nil {
		t.Fatal("expected error for missing primary generator, got nil")
	}

	_, err = NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever:    &mockRetriever{},
		FallbackOnly: true,
	})
	if err != nil {
		t.Fatalf("expected fallback-only pipeline without primary to be valid, got %v", err)
	}
}

func TestAnswer_Success(t *testing.T) {
	question := "where is the db server located?"
	ret := &mockRetriever{result: sampleResult(question)}
	gen := &mockGenerator{answer: "DB-Server is located in Data-Center-1."}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: ret,
		Primary:   gen,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	payload := p.Answer(context.Background(), question)
	if payload.Error != "" {
		t.Fatalf("expected no error in payload, got %q", payload.Error)
	}
	if payload.Answer != "DB-Server is located in Data-Center-1." {
		t.Fatalf("unexpected answer %q", payload.Answer)
	}
	if payload.Question != question {
		t.Fatalf("expected question echoed, got %q", payload.Question)
	}
	if gen.calls != 1 {
		t.Fatalf("expected 1 generator call, got %d", gen.calls)
	}
	if payload.GraphData == nil || len(payload.GraphData.Nodes) != 2 {
		t.Fatal("expected full retrieval result as graph data")
	}
}

func TestAnswer_RetrievalErrorShortCircuits(t *testing.T) {
	ret := &mockRetriever{err: errors.New("connection refused")}
	gen := &mockGenerator{answer: "should never be used"}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: ret,
		Primary:   gen,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	payload := p.Answer(context.Background(), "where is the db server?")
	if gen.calls != 0 {
		t.Fatalf("expected generation skipped after retrieval failure, got %d calls", gen.calls)
	}
	if !strings.HasPrefix(payload.Error, "Retrieval error:") {
		t.Fatalf("expected retrieval-tagged error, got %q", payload.Error)
	}
	if !strings.HasPrefix(payload.Answer, "Error: Retrieval error:") {
		t.Fatalf("expected error answer, got %q", payload.Answer)
	}
	if len(payload.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(payload.Sources))
	}
	if payload.GraphData == nil || len(payload.GraphData.Nodes) != 0 {
		t.Fatal("expected empty graph data on retrieval error")
	}
}

func TestAnswer_FallbackOnPrimaryFailure(t *testing.T) {
	question := "where is the db server located?"
	ret := &mockRetriever{result: sampleResult(question)}
	gen := &mockGenerator{err: errors.New("model overloaded")}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: ret,
		Primary:   gen,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	payload := p.Answer(context.Background(), question)
	if payload.Error != "" {
		t.Fatalf("expected fallback to hide generation failure, got error %q", payload.Error)
	}
	if payload.Answer == "" {
		t.Fatal("expected a fallback answer, got empty string")
	}
	if !strings.Contains(payload.Answer, "LOCATED_IN") && !strings.Contains(payload.Answer, "Location") {
		t.Fatalf("expected location-rule fallback answer, got %q", payload.Answer)
	}
}

func TestAnswer_FallbackOnEmptyPrimaryAnswer(t *testing.T) {
	question := "where is the db server located?"
	ret := &mockRetriever{result: sampleResult(question)}
	gen := &mockGenerator{answer: ""}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: ret,
		Primary:   gen,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	payload := p.Answer(context.Background(), question)
	if payload.Error != "" {
		t.Fatalf("expected no payload error, got %q", payload.Error)
	}
	if payload.Answer == "" {
		t.Fatal("expected fallback answer for empty primary output")
	}
}

func TestAnswer_FallbackOnlyMode(t *testing.T) {
	question := "where is the db server located?"
	ret := &mockRetriever{result: sampleResult(question)}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever:    ret,
		FallbackOnly: true,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	payload := p.Answer(context.Background(), question)
	if payload.Error != "" {
		t.Fatalf("expected no payload error, got %q", payload.Error)
	}
	if payload.Answer == "" {
		t.Fatal("expected deterministic answer in fallback-only mode")
	}
}

func TestAnswer_SourcesOnlyFromSimilarNodes(t *testing.T) {
	question := "where is the db server located?"
	ret := &mockRetriever{result: sampleResult(question)}
	gen := &mockGenerator{answer: "In Data-Center-1."}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: ret,
		Primary:   gen,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	payload := p.Answer(context.Background(), question)
	if len(payload.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(payload.Sources))
	}
	src := payload.Sources[0]
	if src.Name != "DB-Server" {
		t.Fatalf("expected source DB-Server, got %q", src.Name)
	}
	if src.Type != "Asset" {
		t.Fatalf("expected source type Asset, got %q", src.Type)
	}
}

func TestAnswer_SourceNameFallsBackToUnknown(t *testing.T) {
	question := "anything"
	ret := &mockRetriever{result: &graph.RetrievalResult{
		Question: question,
		Nodes: []graph.Node{
			{ID: "n1", Labels: []string{"Asset"}, Properties: map[string]any{"type": "Database"}, Origin: graph.OriginSimilar},
		},
		Relationships: []graph.Relationship{},
		NumSimilar:    1,
	}}
	gen := &mockGenerator{answer: "ok"}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: ret,
		Primary:   gen,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	payload := p.Answer(context.Background(), question)
	if len(payload.Sources) != 1 || payload.Sources[0].Name != "Unknown" {
		t.Fatalf("expected unnamed source reported as Unknown, got %v", payload.Sources)
	}
}

func TestAnswer_TopKDefault(t *testing.T) {
	ret := &mockRetriever{result: sampleResult("q")}
	gen := &mockGenerator{answer: "ok"}

	p, err := NewAnswerPipeline(NewAnswerPipelineParams{
		Retriever: ret,
		Primary:   gen,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	p.Answer(context.Background(), "q")
	if ret.lastK != defaultTopK {
		t.Fatalf("expected default top-k %d, got %d", defaultTopK, ret.lastK)
	}
}
