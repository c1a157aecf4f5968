package action

import (
	"encoding/json"
	"strings"
)

// Type is the closed set of capabilities a plan can name.
type Type int

const (
	TypeUnknown Type = iota
	TypeSearch
	TypeExtract
	TypeGenerate
)

func ParseType(raw string) Type {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "search":
		return TypeSearch
	case "extract":
		return TypeExtract
	case "generate":
		return TypeGenerate
	default:
		return TypeUnknown
	}
}

func (t Type) String() string {
	switch t {
	case TypeSearch:
		return "search"
	case TypeExtract:
		return "extract"
	case TypeGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Action is one planned unit of work.
type Action struct {
	Type Type
	// RawType keeps the planner's spelling so an unrecognised type can be reported as-is.
	RawType        string
	Query          string
	DocumentTitles []string // nil means "all known documents"
	FullDoc        bool
}

func New(t Type, query string, titles []string) Action {
	return Action{Type: t, RawType: t.String(), Query: query, DocumentTitles: titles}
}

// TypeName is what gets reported back to callers.
func (a Action) TypeName() string {
	if a.Type == TypeUnknown && a.RawType != "" {
		return a.RawType
	}
	return a.Type.String()
}

type wireAction struct {
	ActionType     string   `json:"action_type"`
	Query          string   `json:"query"`
	DocumentTitles []string `json:"document_titles,omitempty"`
	FullDoc        bool     `json:"full_doc,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAction{
		ActionType:     a.TypeName(),
		Query:          a.Query,
		DocumentTitles: a.DocumentTitles,
		FullDoc:        a.FullDoc,
	})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = Action{
		Type:           ParseType(w.ActionType),
		RawType:        w.ActionType,
		Query:          w.Query,
		DocumentTitles: w.DocumentTitles,
		FullDoc:        w.FullDoc,
	}
	return nil
}

// Outcome is the recorded result of one executed action. Failures are values.
type Outcome struct {
	Action  Action `json:"action"`
	Result  string `json:"result"`
	Success bool   `json:"success"`
}

func Succeeded(a Action, result string) Outcome {
	return Outcome{Action: a, Result: result, Success: true}
}

func Failed(a Action, message string) Outcome {
	return Outcome{Action: a, Result: message, Success: false}
}

// CountSucceeded returns how many outcomes report success.
func CountSucceeded(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Success {
			n++
		}
	}
	return n
}
