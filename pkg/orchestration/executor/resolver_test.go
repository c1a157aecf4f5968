package executor

import (
	"testing"

	"orchestration-agent/pkg/orchestration/document"

	"github.com/stretchr/testify/assert"
)

func TestResolveTitles(t *testing.T) {
	docs := []document.Context{
		{ID: "u_p_d1", Title: "Contract A"},
		{ID: "u_p_d2", Title: "Contract B - Amendment"},
		{ID: "u_p_d3", Title: ""},
	}

	tests := []struct {
		name string
		refs []string
		want []string
	}{
		{"case insensitive", []string{"contract a"}, []string{"u_p_d1"}},
		{"reference inside title", []string{"amendment"}, []string{"u_p_d2"}},
		{"title inside reference", []string{"The Contract A document (signed)"}, []string{"u_p_d1"}},
		{"unmatched dropped", []string{"Invoice 7", "Contract A"}, []string{"u_p_d1"}},
		{"duplicates collapsed", []string{"Contract A", "CONTRACT A"}, []string{"u_p_d1"}},
		{"order follows references", []string{"Contract B", "Contract A"}, []string{"u_p_d2", "u_p_d1"}},
		{"blank reference ignored", []string{"  "}, nil},
		{"nothing matches", []string{"Annual report"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveTitles(tt.refs, docs))
		})
	}
}
