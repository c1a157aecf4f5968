package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/llm"
	"orchestration-agent/pkg/orchestration/action"
	"orchestration-agent/pkg/orchestration/document"

	"github.com/stretchr/testify/assert"
)

type stubGenerator struct {
	text   string
	err    error
	prompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

var (
	outcomes = []action.Outcome{
		action.Succeeded(action.New(action.TypeExtract, "termination clauses", []string{"Contract A"}), "Clause 9.1 "+strings.Repeat("z", 1000)),
		action.Failed(action.New(action.TypeSearch, "market norms", nil), "Search failed: timeout"),
	}
	fullDocs = []document.Full{
		{ID: "u_p_d1", Title: "Contract A", Text: "full text of A", SourceMode: document.SourceFull, ChunkCount: 4},
		{ID: "u_p_d2", Title: "Contract B", Text: "excerpt of B", SourceMode: document.SourceError},
	}
)

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("What are the termination clauses?", outcomes, fullDocs)

	assert.Contains(t, p, "What are the termination clauses?")
	assert.Contains(t, p, "type=extract status=OK")
	assert.Contains(t, p, "type=search status=FAILED")
	assert.Contains(t, p, "=== Contract A (source: full, chunks: 4) ===")
	assert.Contains(t, p, "=== Contract B (source: error, chunks: 0) ===")
	assert.Contains(t, p, "[document title]")
	assert.NotContains(t, p, strings.Repeat("z", maxResultChars))
}

func TestSynthesize_UsesModelAnswer(t *testing.T) {
	gen := &stubGenerator{text: "  Per [Contract A], clause 9.1 applies.  "}
	s := NewSynthesizer(gen, logger.NewNopLogger())

	out, fallback := s.Synthesize(context.Background(), "q", outcomes, fullDocs)
	assert.NoError(t, fallback)
	assert.Equal(t, "Per [Contract A], clause 9.1 applies.", out)
	assert.NotEmpty(t, gen.prompt)
}

func TestSynthesize_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		gen  *stubGenerator
	}{
		{"provider error", &stubGenerator{err: errors.New("all credentials failed")}},
		{"blank answer", &stubGenerator{text: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynthesizer(tt.gen, logger.NewNopLogger())

			out, fallback := s.Synthesize(context.Background(), "q", outcomes, fullDocs)

			assert.Error(t, fallback)
			assert.Contains(t, out, "[Contract A]")
			assert.Contains(t, out, "[Contract B]")
			assert.Contains(t, out, "1 of 2 actions completed successfully")
			assert.Contains(t, out, "best-effort")
		})
	}
}
