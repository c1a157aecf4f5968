package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/pkg/orchestration/action"
	"orchestration-agent/pkg/orchestration/document"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	kind    string
	ids     []string
	query   string
	fullDoc bool
}

type fakeCapabilities struct {
	calls     []call
	searchErr error
	block     bool
	panics    bool
}

func (f *fakeCapabilities) Search(ctx context.Context, query string) (string, error) {
	f.calls = append(f.calls, call{kind: "search", query: query})
	if f.panics {
		var results map[string]string
		results[query] = "never stored"
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.searchErr != nil {
		return "", f.searchErr
	}
	return "search:" + query, nil
}

func (f *fakeCapabilities) Extract(ctx context.Context, ids []string, query string) (string, error) {
	f.calls = append(f.calls, call{kind: "extract", ids: ids, query: query})
	return "extract:" + query, nil
}

func (f *fakeCapabilities) Generate(ctx context.Context, ids []string, query string, fullDoc bool) (string, error) {
	f.calls = append(f.calls, call{kind: "generate", ids: ids, query: query, fullDoc: fullDoc})
	return "generate:" + query, nil
}

var docs = []document.Context{
	{ID: "u_p_d1", Title: "Contract A"},
	{ID: "u_p_d2", Title: "Contract B"},
}

func TestExecutor_DispatchesInOrder(t *testing.T) {
	caps := &fakeCapabilities{}
	ex := NewExecutor(caps, logger.NewNopLogger(), time.Second)

	gen := action.New(action.TypeGenerate, "compare", []string{"contract b"})
	gen.FullDoc = true
	plan := []action.Action{
		action.New(action.TypeSearch, "market norms", nil),
		action.New(action.TypeExtract, "termination clauses", []string{"Contract A"}),
		gen,
	}

	var observed []int
	outcomes := ex.Execute(context.Background(), plan, docs, func(i, total int, o action.Outcome) {
		assert.Equal(t, 3, total)
		observed = append(observed, i)
	})

	require.Len(t, outcomes, 3)
	assert.Equal(t, []int{0, 1, 2}, observed)
	for i, o := range outcomes {
		assert.True(t, o.Success)
		assert.Equal(t, plan[i], o.Action)
	}
	assert.Equal(t, []call{
		{kind: "search", query: "market norms"},
		{kind: "extract", ids: []string{"u_p_d1"}, query: "termination clauses"},
		{kind: "generate", ids: []string{"u_p_d2"}, query: "compare", fullDoc: true},
	}, caps.calls)
}

func TestExecutor_FailureDoesNotStopBatch(t *testing.T) {
	caps := &fakeCapabilities{searchErr: errors.New("agent unreachable")}
	ex := NewExecutor(caps, logger.NewNopLogger(), time.Second)

	plan := []action.Action{
		action.New(action.TypeSearch, "q1", nil),
		action.New(action.TypeExtract, "q2", []string{"Contract A"}),
	}
	outcomes := ex.Execute(context.Background(), plan, docs, nil)

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, "Search failed: agent unreachable", outcomes[0].Result)
	assert.True(t, outcomes[1].Success)
}

func TestExecutor_MissingTitlesTargetAllDocuments(t *testing.T) {
	caps := &fakeCapabilities{}
	ex := NewExecutor(caps, logger.NewNopLogger(), time.Second)

	ex.Execute(context.Background(), []action.Action{action.New(action.TypeExtract, "parties", nil)}, docs, nil)

	require.Len(t, caps.calls, 1)
	assert.Equal(t, []string{"u_p_d1", "u_p_d2"}, caps.calls[0].ids)
}

func TestExecutor_UnresolvedTitlesSkipRemoteCall(t *testing.T) {
	caps := &fakeCapabilities{}
	ex := NewExecutor(caps, logger.NewNopLogger(), time.Second)

	outcomes := ex.Execute(context.Background(), []action.Action{
		action.New(action.TypeExtract, "parties", []string{"Invoice 7"}),
		action.New(action.TypeGenerate, "summary", []string{"Annual report"}),
	}, docs, nil)

	assert.Empty(t, caps.calls)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Result, "No valid documents")
	assert.False(t, outcomes[1].Success)
}

func TestExecutor_UnknownType(t *testing.T) {
	caps := &fakeCapabilities{}
	ex := NewExecutor(caps, logger.NewNopLogger(), time.Second)

	plan := []action.Action{{Type: action.TypeUnknown, RawType: "translate", Query: "into French"}}
	outcomes := ex.Execute(context.Background(), plan, docs, nil)

	assert.Empty(t, caps.calls)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, "Unknown action type: translate", outcomes[0].Result)
}

func TestExecutor_TimeoutIsAFailure(t *testing.T) {
	caps := &fakeCapabilities{block: true}
	ex := NewExecutor(caps, logger.NewNopLogger(), 10*time.Millisecond)

	outcomes := ex.Execute(context.Background(), []action.Action{action.New(action.TypeSearch, "slow", nil)}, docs, nil)

	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Result, "Search failed: context deadline exceeded")
}

func TestExecutor_PanicIsAFailure(t *testing.T) {
	caps := &fakeCapabilities{panics: true}
	ex := NewExecutor(caps, logger.NewNopLogger(), time.Second)

	plan := []action.Action{
		action.New(action.TypeSearch, "q1", nil),
		action.New(action.TypeExtract, "q2", []string{"Contract A"}),
	}

	var outcomes []action.Outcome
	require.NotPanics(t, func() {
		outcomes = ex.Execute(context.Background(), plan, docs, nil)
	})

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Success)
	assert.Contains(t, outcomes[0].Result, "Search failed: assignment to entry in nil map")
	assert.True(t, outcomes[1].Success)
}
