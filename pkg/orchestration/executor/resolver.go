package executor

import (
	"strings"

	"orchestration-agent/pkg/orchestration/document"
)

// ResolveTitles maps planner-supplied titles back to document ids. A reference
// matches a document when either lower-cased string contains the other.
// Unmatched references are dropped; ids are returned once, in first-match order.
func ResolveTitles(refs []string, docs []document.Context) []string {
	seen := make(map[string]bool)
	var ids []string

	for _, ref := range refs {
		needle := strings.ToLower(strings.TrimSpace(ref))
		if needle == "" {
			continue
		}
		for _, d := range docs {
			title := strings.ToLower(strings.TrimSpace(d.Title))
			if title == "" {
				continue
			}
			if strings.Contains(title, needle) || strings.Contains(needle, title) {
				if !seen[d.ID] {
					seen[d.ID] = true
					ids = append(ids, d.ID)
				}
				break
			}
		}
	}
	return ids
}
