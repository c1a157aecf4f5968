package planner

import (
	"context"
	"errors"
	"testing"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/llm"
	"orchestration-agent/pkg/orchestration/action"
	"orchestration-agent/pkg/orchestration/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedGenerator struct {
	responses []string
	err       error
	prompts   []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	r := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return r, nil
}

var docs = []document.Context{
	{ID: "u_p_d1", Title: "Contract A", Excerpt: "Contract A\nParties"},
	{ID: "u_p_d2", Title: "Contract B", Excerpt: "Contract B"},
	{ID: "u_p_d3", Title: "Invoice 7", Excerpt: "Invoice"},
}

func TestPlanner_PromptListsDocumentsAndQuery(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{planJSON}}
	p := NewPlanner(gen, logger.NewNopLogger())

	_, err := p.Plan(context.Background(), "What are the termination clauses?", docs)
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "- Contract A: Contract A Parties")
	assert.Contains(t, gen.prompts[0], "What are the termination clauses?")
	assert.Contains(t, gen.prompts[0], "search")
	assert.Contains(t, gen.prompts[0], "extract")
	assert.Contains(t, gen.prompts[0], "generate")
}

func TestPlanner_RetriesThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"no idea", "still prose", planJSON}}
	p := NewPlanner(gen, logger.NewNopLogger())

	plan, err := p.Plan(context.Background(), "q", docs)
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 3)
	assert.Len(t, plan.Actions, 2)
	assert.Equal(t, 3, plan.Attempts)
	assert.False(t, plan.Fallback)
}

func TestPlanner_FallsBackAfterMalformedResponses(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"garbage {", "[not json", "```\nnope\n```"}}
	p := NewPlanner(gen, logger.NewNopLogger())

	plan, err := p.Plan(context.Background(), "What are the termination clauses?", docs)
	require.NoError(t, err)

	assert.Len(t, gen.prompts, DefaultMaxAttempts)
	assert.True(t, plan.Fallback)
	require.Len(t, plan.Actions, 1)
	fallback := plan.Actions[0]
	assert.Equal(t, action.TypeExtract, fallback.Type)
	assert.Contains(t, fallback.Query, "What are the termination clauses?")
	assert.Equal(t, []string{"Contract A", "Contract B"}, fallback.DocumentTitles)
}

func TestPlanner_ProviderFailureIsFatal(t *testing.T) {
	boom := errors.New("exhausted")
	gen := &scriptedGenerator{err: boom}
	p := NewPlanner(gen, logger.NewNopLogger())

	plan, err := p.Plan(context.Background(), "q", docs)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, plan.Actions)
	assert.Len(t, gen.prompts, 1)
}

func TestPlanner_MaxAttemptsOption(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"nothing"}}
	p := NewPlanner(gen, logger.NewNopLogger(), WithMaxAttempts(5))

	plan, err := p.Plan(context.Background(), "q", docs[:1])
	require.NoError(t, err)
	assert.Len(t, gen.prompts, 5)
	assert.Equal(t, []string{"Contract A"}, plan.Actions[0].DocumentTitles)
}
