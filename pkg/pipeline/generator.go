package pipeline

import (
	"context"
	"fmt"

	"github.com/atlas-cmdb/backend/pkg/ai"
	"github.com/atlas-cmdb/backend/pkg/logger"

	"github.com/pkoukk/tiktoken-go"
)

const defaultContextTokenBudget = 6000

// Generator is the strategy interface for the generate stage. The primary
// implementation wraps a completion model and may fail; the fallback path
// never does (see pkg/ai/fallback).
type Generator interface {
	Generate(ctx context.Context, question string, contextText string) (string, error)
}

// LLMGenerator generates answers through a completion model, using the
// fixed CMDB assistant instruction and a user prompt embedding the graph
// context and the question.
type LLMGenerator struct {
	client        ai.CompletionClient
	tokenEncoding string
	tokenBudget   int
}

// NewLLMGeneratorParams configures an LLMGenerator. TokenEncoding and
// ContextTokenBudget bound the size of the context block included in the
// prompt; zero values select "o200k_base" and the default budget.
type NewLLMGeneratorParams struct {
	Client             ai.CompletionClient
	TokenEncoding      string
	ContextTokenBudget int
}

// NewLLMGenerator creates a generator backed by the given completion
// client.
func NewLLMGenerator(params NewLLMGeneratorParams) (*LLMGenerator, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	encoding := params.TokenEncoding
	if encoding == "" {
		encoding = "o200k_base"
	}
	budget := params.ContextTokenBudget
	if budget <= 0 {
		budget = defaultContextTokenBudget
	}
	return &LLMGenerator{
		client:        params.Client,
		tokenEncoding: encoding,
		tokenBudget:   budget,
	}, nil
}

// Generate produces an answer for the question grounded in the context
// text. The context is truncated to the token budget before the prompt is
// built; the question itself is never truncated.
func (g *LLMGenerator) Generate(
	ctx context.Context,
	question string,
	contextText string,
) (string, error) {
	contextText, err := g.truncateToBudget(contextText)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(ai.AnswerUserPrompt, contextText, question)

	answer, err := g.client.GenerateCompletion(ctx, prompt,
		ai.WithSystemPrompts(ai.AnswerSystemPrompt),
	)
	if err != nil {
		return "", err
	}

	return answer, nil
}

func (g *LLMGenerator) truncateToBudget(contextText string) (string, error) {
	enc, err := tiktoken.GetEncoding(g.tokenEncoding)
	if err != nil {
		return "", fmt.Errorf("failed to load token encoding %q: %w", g.tokenEncoding, err)
	}

	tokens := enc.Encode(contextText, nil, nil)
	if len(tokens) <= g.tokenBudget {
		return contextText, nil
	}

	logger.Warn("[Pipeline] Context exceeds token budget, truncating",
		"tokens", len(tokens), "budget", g.tokenBudget)

	return enc.Decode(tokens[:g.tokenBudget]), nil
}
