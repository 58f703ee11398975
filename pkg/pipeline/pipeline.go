// Package pipeline implements the two-stage answer state machine:
// retrieve, then generate. Retrieval failures short-circuit the machine;
// generation failures are absorbed by a deterministic fallback and never
// surface to the caller.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/atlas-cmdb/backend/internal/metrics"
	"github.com/atlas-cmdb/backend/pkg/ai/fallback"
	"github.com/atlas-cmdb/backend/pkg/graph"
	"github.com/atlas-cmdb/backend/pkg/logger"
	"github.com/atlas-cmdb/backend/pkg/retriever"
)

const defaultTopK = 5

// Retriever is the retrieval boundary of the pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) (*graph.RetrievalResult, error)
}

// PipelineState is threaded by value through the two stages. Each stage
// reads prior fields and returns an updated copy; no stage mutates state
// shared between concurrent requests.
type PipelineState struct {
	Question string
	Result   *graph.RetrievalResult
	Context  string
	Answer   string
	Err      string
}

// AnswerPipeline sequences retrieval and generation for one question at a
// time. An instance is constructed once at service start and shared across
// concurrent requests; all per-question state lives in PipelineState.
type AnswerPipeline struct {
	retrieverClient Retriever
	primary         Generator
	fallbackGen     *fallback.RuleBasedGenerator
	topK            int
	fallbackOnly    bool
}

// NewAnswerPipelineParams configures an AnswerPipeline.
//
// FallbackOnly selects the configuration in which every answer comes from
// the deterministic generator; Primary is then not required. In primary
// mode a Primary generator must be provided — a missing one is a
// construction-time configuration error, not a per-request failure.
type NewAnswerPipelineParams struct {
	Retriever    Retriever
	Primary      Generator
	TopK         int
	FallbackOnly bool
}

// NewAnswerPipeline creates and validates a new AnswerPipeline.
func NewAnswerPipeline(params NewAnswerPipelineParams) (*AnswerPipeline, error) {
	if params.Retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if !params.FallbackOnly && params.Primary == nil {
		return nil, fmt.Errorf("primary generator is required unless fallback-only mode is enabled")
	}
	topK := params.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return &AnswerPipeline{
		retrieverClient: params.Retriever,
		primary:         params.Primary,
		fallbackGen:     fallback.NewRuleBasedGenerator(),
		topK:            topK,
		fallbackOnly:    params.FallbackOnly,
	}, nil
}

// Answer runs the state machine for one question and assembles the final
// payload. The caller-supplied context is propagated to whichever network
// call is currently outstanding; the pipeline imposes no timeout of its
// own.
func (p *AnswerPipeline) Answer(ctx context.Context, question string) graph.AnswerPayload {
	start := time.Now()

	state := PipelineState{Question: question}
	state = p.retrieve(ctx, state)
	state = p.generate(ctx, state)

	metrics.AnswerDuration.Observe(time.Since(start).Seconds())

	return assemblePayload(state)
}

// retrieve calls the graph retriever. On success it sets the retrieval
// result and context and clears the error; on any failure it sets a
// retrieval-tagged error, which is terminal for the state machine.
func (p *AnswerPipeline) retrieve(ctx context.Context, state PipelineState) PipelineState {
	result, err := p.retrieverClient.Retrieve(ctx, state.Question, p.topK)
	if err != nil {
		logger.Error("[Pipeline] Retrieval failed", "err", err)
		metrics.RetrievalErrors.Inc()
		metrics.AnswersTotal.WithLabelValues("retrieval_error").Inc()
		state.Err = fmt.Sprintf("Retrieval error: %s", err)
		return state
	}

	state.Result = result
	state.Context = retriever.FormatContext(result)
	state.Err = ""
	return state
}

// generate produces the answer text. It is entered only when retrieval
// succeeded. Primary generator failure is never fatal: the deterministic
// fallback answers instead and the degradation stays internal.
func (p *AnswerPipeline) generate(ctx context.Context, state PipelineState) PipelineState {
	if state.Err != "" {
		return state
	}

	if p.fallbackOnly {
		state.Answer = p.fallbackGen.Generate(state.Question, state.Context)
		metrics.AnswersTotal.WithLabelValues("ok").Inc()
		return state
	}

	answer, err := p.primary.Generate(ctx, state.Question, state.Context)
	if err != nil || answer == "" {
		logger.Warn("[Pipeline] Primary generator failed, using fallback", "err", err)
		metrics.GeneratorFallbacks.Inc()
		metrics.AnswersTotal.WithLabelValues("fallback").Inc()
		state.Answer = p.fallbackGen.Generate(state.Question, state.Context)
		return state
	}

	state.Answer = answer
	metrics.AnswersTotal.WithLabelValues("ok").Inc()
	return state
}
