package capability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"orchestration-agent/pkg/correlation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	var got searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/agents/search", r.URL.Path)
		assert.Equal(t, "exec-9", r.Header.Get(correlation.Header))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":"three articles found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := correlation.WithExecutionID(context.Background(), "exec-9")

	out, err := c.Search(ctx, "notice periods")
	require.NoError(t, err)
	assert.Equal(t, "three articles found", out)
	assert.Equal(t, searchRequest{Query: "notice periods", AgentID: SearchAgentID}, got)
}

func TestClient_ProcessPayloads(t *testing.T) {
	var bodies []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/agents/process", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		_, _ = w.Write([]byte(`{"response":"Clause 9.1 ..."}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	ctx := correlation.WithExecutionID(context.Background(), "exec-1")

	out, err := c.Extract(ctx, []string{"u_p_d1"}, "termination clauses")
	require.NoError(t, err)
	assert.Equal(t, "Clause 9.1 ...", out)

	_, err = c.Generate(ctx, []string{"u_p_d1", "u_p_d2"}, "compare", true)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.Equal(t, ExtractionAgentID, bodies[0]["agentId"])
	assert.Equal(t, "exec-1", bodies[0]["executionId"])
	assert.NotContains(t, bodies[0], "fullDoc")

	assert.Equal(t, GenerationAgentID, bodies[1]["agentId"])
	assert.Equal(t, true, bodies[1]["fullDoc"])
	assert.Equal(t, []interface{}{"u_p_d1", "u_p_d2"}, bodies[1]["documentIds"])
}

func TestClient_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string", `{"response":"plain"}`, "plain"},
		{"structured", `{"response":{"parties":["A","B"]}}`, `{"parties":["A","B"]}`},
		{"missing", `{"other":1}`, noExtractionResults},
		{"null", `{"response":null}`, noExtractionResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := NewClient(srv.URL, time.Second).Extract(context.Background(), []string{"u_p_d"}, "q")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Search(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "agent down")
}
