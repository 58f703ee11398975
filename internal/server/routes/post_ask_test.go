package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/atlas-cmdb/backend/internal/server/middleware"
	"github.com/atlas-cmdb/backend/pkg/graph"
	"github.com/atlas-cmdb/backend/pkg/pipeline"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i any) error {
	return v.validator.Struct(i)
}

type stubRetriever struct {
	result *graph.RetrievalResult
}

func (s *stubRetriever) Retrieve(ctx context.Context, question string, k int) (*graph.RetrievalResult, error) {
	return s.result, nil
}

type stubGenerator struct {
	answer string
}

func (s *stubGenerator) Generate(ctx context.Context, question string, contextText string) (string, error) {
	return s.answer, nil
}

func newAskContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	answerPipeline, err := pipeline.NewAnswerPipeline(pipeline.NewAnswerPipelineParams{
		Retriever: &stubRetriever{result: &graph.RetrievalResult{
			Question: "q",
			Nodes: []graph.Node{
				{ID: "db", Labels: []string{"Asset"}, Properties: map[string]any{"name": "DB-Server"}, Score: 0.9, Origin: graph.OriginSimilar},
			},
			Relationships: []graph.Relationship{},
			NumSimilar:    1,
		}},
		Primary: &stubGenerator{answer: "DB-Server is in Data-Center-1."},
	})
	if err != nil {
		t.Fatalf("failed to build pipeline: %v", err)
	}

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	cc := &middleware.AppContext{Context: c, App: &middleware.App{Pipeline: answerPipeline}}
	return cc, rec
}

func TestAskHandler_Success(t *testing.T) {
	c, rec := newAskContext(t, `{"question": "where is the db server?"}`)

	if err := AskHandler(c); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload graph.AnswerPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Answer != "DB-Server is in Data-Center-1." {
		t.Fatalf("unexpected answer %q", payload.Answer)
	}
	if len(payload.Sources) != 1 || payload.Sources[0].Name != "DB-Server" {
		t.Fatalf("unexpected sources %v", payload.Sources)
	}
}

func TestAskHandler_MissingQuestion(t *testing.T) {
	c, rec := newAskContext(t, `{}`)

	if err := AskHandler(c); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAskHandler_WhitespaceQuestion(t *testing.T) {
	c, rec := newAskContext(t, `{"question": "   "}`)

	if err := AskHandler(c); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAskHandler_InvalidBody(t *testing.T) {
	c, rec := newAskContext(t, `not json`)

	if err := AskHandler(c); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
