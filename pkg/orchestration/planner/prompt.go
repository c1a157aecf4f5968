package planner

import (
	"fmt"
	"strings"

	"orchestration-agent/pkg/orchestration/document"
)

// PromptComposer renders the planning request sent to the model.
type PromptComposer struct{}

func NewPromptComposer() *PromptComposer {
	return &PromptComposer{}
}

func (c *PromptComposer) Compose(userQuery string, docs []document.Context) string {
	var b strings.Builder

	c.writeRole(&b)
	c.writeCapabilities(&b)
	c.writeDocuments(&b, docs)
	c.writeQuery(&b, userQuery)
	c.writeOutputContract(&b)

	return b.String()
}

func (c *PromptComposer) writeRole(b *strings.Builder) {
	b.WriteString("You are an orchestration agent. Decide which analysis actions are needed to answer the user's request about the documents below.\n\n")
}

func (c *PromptComposer) writeCapabilities(b *strings.Builder) {
	b.WriteString("AVAILABLE ACTIONS:\n")
	b.WriteString("- search: look up external information on the web and summarise it. Needs only a query.\n")
	b.WriteString("- extract: pull structured entities or facts out of specific documents. Needs a query and document_titles.\n")
	b.WriteString("- generate: write new text (summaries, comparisons, drafts) from specific documents. Needs a query and document_titles; set full_doc to true when the whole document must be read.\n\n")
}

func (c *PromptComposer) writeDocuments(b *strings.Builder, docs []document.Context) {
	b.WriteString("AVAILABLE DOCUMENTS:\n")
	for _, d := range docs {
		excerpt := strings.ReplaceAll(d.Excerpt, "\n", " ")
		b.WriteString(fmt.Sprintf("- %s: %s\n", d.Title, excerpt))
	}
	b.WriteString("\n")
}

func (c *PromptComposer) writeQuery(b *strings.Builder, userQuery string) {
	b.WriteString(fmt.Sprintf("USER REQUEST:\n%s\n\n", userQuery))
}

func (c *PromptComposer) writeOutputContract(b *strings.Builder) {
	b.WriteString("Respond with ONLY a JSON array, no prose, in this shape:\n")
	b.WriteString(`[{"action_type": "extract", "query": "...", "document_titles": ["<title from the list above>"]},` + "\n")
	b.WriteString(` {"action_type": "generate", "query": "...", "document_titles": ["..."], "full_doc": false}]` + "\n")
	b.WriteString("Use document titles exactly as listed. Order the actions in the sequence they should run.\n")
}
