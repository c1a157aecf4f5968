package document

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDocumentID = errors.New("invalid document id")

// SourceMode records how much of a document was actually obtained.
type SourceMode string

const (
	SourceFull     SourceMode = "full"
	SourceChunked  SourceMode = "chunked"
	SourceFallback SourceMode = "fallback"
	SourceError    SourceMode = "error"
)

// Context is the short preview used for planning.
type Context struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// Full is the document text handed to synthesis.
type Full struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Text       string     `json:"text"`
	SourceMode SourceMode `json:"source_mode"`
	ChunkCount int        `json:"chunk_count"`
}

// ID is a parsed userId_projectId_docId identifier.
type ID struct {
	UserID    string
	ProjectID string
	DocID     string
}

// ParseID splits on the first and last underscore; the project id may contain underscores.
func ParseID(raw string) (ID, error) {
	first := strings.Index(raw, "_")
	last := strings.LastIndex(raw, "_")
	if first <= 0 || last == first || last == len(raw)-1 {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidDocumentID, raw)
	}
	return ID{
		UserID:    raw[:first],
		ProjectID: raw[first+1 : last],
		DocID:     raw[last+1:],
	}, nil
}

func (id ID) String() string {
	return id.UserID + "_" + id.ProjectID + "_" + id.DocID
}

// Titles returns the titles of ctxs in order.
func Titles(ctxs []Context) []string {
	titles := make([]string, len(ctxs))
	for i, c := range ctxs {
		titles[i] = c.Title
	}
	return titles
}

// NoContent stands in for the text of a document that has none.
const NoContent = "No content available"

const (
	maxTitleLen   = 100
	maxExcerptLen = 200
	excerptLines  = 3
)

func deriveTitle(id ID, firstChunk string) string {
	trimmed := strings.TrimSpace(firstChunk)
	if trimmed == "" {
		return "Document " + id.DocID
	}
	line := strings.TrimSpace(strings.SplitN(trimmed, "\n", 2)[0])
	if line == "" {
		return "Document " + id.DocID
	}
	return truncateRunes(line, maxTitleLen)
}

func deriveExcerpt(firstChunk string) string {
	if strings.TrimSpace(firstChunk) == "" {
		return NoContent
	}
	lines := strings.Split(strings.TrimSpace(firstChunk), "\n")
	if len(lines) > excerptLines {
		lines = lines[:excerptLines]
	}
	return truncateRunes(strings.Join(lines, "\n"), maxExcerptLen)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
