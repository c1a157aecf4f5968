package response

import (
	"context"
	"fmt"
	"strings"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/llm"
	"orchestration-agent/pkg/orchestration/action"
	"orchestration-agent/pkg/orchestration/document"
)

const maxResultChars = 800

// Synthesizer fuses action outcomes and document text into the final answer.
type Synthesizer struct {
	generator llm.TextGenerator
	logger    logger.ILogger
}

func NewSynthesizer(generator llm.TextGenerator, log logger.ILogger) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		logger:    log,
	}
}

// Synthesize always returns a non-empty answer. Generation failures,
// including credential exhaustion, degrade to a templated summary and
// fallback reports why.
func (s *Synthesizer) Synthesize(ctx context.Context, userQuery string, outcomes []action.Outcome, docs []document.Full) (answer string, fallback error) {
	prompt := BuildPrompt(userQuery, outcomes, docs)

	text, err := s.generator.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(text) != "" {
		s.logger.Info("SYNTHESIS", "Final response generated", map[string]interface{}{
			"actions":   len(outcomes),
			"documents": len(docs),
		})
		return strings.TrimSpace(text), nil
	}

	if err == nil {
		err = fmt.Errorf("empty synthesis response")
	}
	s.logger.Warn("SYNTHESIS", "Using templated fallback response", map[string]interface{}{
		"error": err.Error(),
	})
	return Fallback(outcomes, docs), err
}

// BuildPrompt renders the synthesis request.
func BuildPrompt(userQuery string, outcomes []action.Outcome, docs []document.Full) string {
	var b strings.Builder

	b.WriteString("You are composing the final answer to a user's request about a set of documents.\n\n")
	b.WriteString(fmt.Sprintf("USER REQUEST:\n%s\n\n", userQuery))

	writeOutcomes(&b, outcomes)
	writeDocuments(&b, docs)
	writeInstructions(&b)

	return b.String()
}

func writeOutcomes(b *strings.Builder, outcomes []action.Outcome) {
	b.WriteString("ACTION RESULTS:\n")
	if len(outcomes) == 0 {
		b.WriteString("(no actions were executed)\n")
	}
	for i, o := range outcomes {
		status := "OK"
		if !o.Success {
			status = "FAILED"
		}
		b.WriteString(fmt.Sprintf("[%d] type=%s status=%s\n", i+1, o.Action.TypeName(), status))
		b.WriteString(fmt.Sprintf("    query: %s\n", o.Action.Query))
		b.WriteString(fmt.Sprintf("    result: %s\n", truncate(o.Result, maxResultChars)))
	}
	b.WriteString("\n")
}

func writeDocuments(b *strings.Builder, docs []document.Full) {
	b.WriteString("DOCUMENTS:\n")
	for _, d := range docs {
		b.WriteString(fmt.Sprintf("=== %s (source: %s, chunks: %d) ===\n", d.Title, d.SourceMode, d.ChunkCount))
		b.WriteString(d.Text)
		b.WriteString("\n\n")
	}
}

func writeInstructions(b *strings.Builder) {
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. Base the answer on the action results first.\n")
	b.WriteString("2. When they are missing, failed or insufficient, analyse the document text directly.\n")
	b.WriteString("3. Cite the source of every claim as [document title].\n")
	b.WriteString("4. Mention when a document was only partially available (source other than full or chunked).\n")
	b.WriteString("5. Always give a complete answer. Do not reply that you are unable to answer.\n")
}

// Fallback is the templated answer used when synthesis cannot run.
func Fallback(outcomes []action.Outcome, docs []document.Full) string {
	var b strings.Builder

	b.WriteString("Analysis completed on the following documents:\n")
	for _, d := range docs {
		b.WriteString(fmt.Sprintf("- [%s]\n", d.Title))
	}
	b.WriteString(fmt.Sprintf("\n%d of %d actions completed successfully.\n", action.CountSucceeded(outcomes), len(outcomes)))

	for _, o := range outcomes {
		if o.Success {
			b.WriteString(fmt.Sprintf("\n%s (%s): %s\n", o.Action.TypeName(), o.Action.Query, truncate(o.Result, maxResultChars)))
		}
	}

	b.WriteString("\nThis is a best-effort answer based on the available material; the final synthesis step could not be completed.")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
