package planner

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"orchestration-agent/pkg/orchestration/action"
)

// strategy tries to decode a plan from model output. ok=false is a typed
// no-match, never an error: the caller moves on to the next strategy.
type strategy interface {
	Name() string
	Extract(text string) (actions []action.Action, ok bool)
}

var (
	fencedBlock   = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")
	bracketRegion = regexp.MustCompile(`\[[\s\S]*?\]`)
)

// ExtractActions runs the fence-stripped text through each strategy in turn.
// The name of the strategy that matched is returned for logging.
func ExtractActions(raw string) ([]action.Action, string, bool) {
	text := stripFences(raw)
	if text == "" {
		return nil, "", false
	}
	for _, s := range []strategy{balancedScan{}, regexScan{}} {
		if actions, ok := s.Extract(text); ok {
			return actions, s.Name(), true
		}
	}
	return nil, "", false
}

// stripFences returns the content of the first Markdown code block when one
// exists, otherwise the text with stray backticks removed.
func stripFences(raw string) string {
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(strings.ReplaceAll(raw, "`", ""))
}

type balancedScan struct{}

func (balancedScan) Name() string { return "balanced" }

func (balancedScan) Extract(text string) ([]action.Action, bool) {
	start := strings.Index(text, "[")
	if start < 0 {
		return nil, false
	}
	end := matchingBracket(text, start)
	if end < 0 {
		return nil, false
	}
	return decodeActions(text[start : end+1])
}

// matchingBracket returns the index of the ']' closing text[start], skipping
// brackets inside JSON string literals, or -1.
func matchingBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

type regexScan struct{}

func (regexScan) Name() string { return "regex" }

// Extract tries every non-greedy [...] candidate. A candidate cut short by a
// nested array is widened to each later ']' until something decodes.
func (regexScan) Extract(text string) ([]action.Action, bool) {
	closers := closingPositions(text)
	for _, loc := range bracketRegion.FindAllStringIndex(text, -1) {
		for _, end := range closers {
			if end < loc[1]-1 {
				continue
			}
			if actions, ok := decodeActions(text[loc[0] : end+1]); ok {
				return actions, true
			}
		}
	}
	return nil, false
}

func closingPositions(text string) []int {
	var out []int
	for i := 0; i < len(text); i++ {
		if text[i] == ']' {
			out = append(out, i)
		}
	}
	return out
}

// decodeActions parses candidate as a JSON array and keeps only valid entries.
func decodeActions(candidate string) ([]action.Action, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &items); err != nil {
		return nil, false
	}

	var actions []action.Action
	for _, item := range items {
		if a, ok := validateAction(item); ok {
			actions = append(actions, a)
		}
	}
	return actions, len(actions) > 0
}

// validateAction requires a type (action_type or type) and a non-blank query.
// Scalar document titles are wrapped into a list.
func validateAction(item json.RawMessage) (action.Action, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal(item, &obj); err != nil {
		return action.Action{}, false
	}

	rawType := firstString(obj, "action_type", "type")
	query := firstString(obj, "query")
	if rawType == "" || query == "" {
		return action.Action{}, false
	}

	return action.Action{
		Type:           action.ParseType(rawType),
		RawType:        rawType,
		Query:          query,
		DocumentTitles: titlesOf(obj),
		FullDoc:        boolOf(obj, "full_doc", "fullDoc"),
	}, true
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func titlesOf(obj map[string]interface{}) []string {
	var raw interface{}
	for _, k := range []string{"document_titles", "documentTitles"} {
		if v, ok := obj[k]; ok && v != nil {
			raw = v
			break
		}
	}

	if list, ok := raw.([]interface{}); ok {
		titles := make([]string, 0, len(list))
		for _, t := range list {
			if s, ok := scalarString(t); ok {
				titles = append(titles, s)
			}
		}
		if len(titles) == 0 {
			return nil
		}
		return titles
	}
	if s, ok := scalarString(raw); ok {
		return []string{s}
	}
	return nil
}

// scalarString renders a JSON scalar as title text; 2024 becomes "2024".
func scalarString(v interface{}) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func boolOf(obj map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case bool:
			return v
		case string:
			return strings.EqualFold(v, "true")
		}
	}
	return false
}
