package metrics

import (
	"errors"
	"testing"

	"orchestration-agent/pkg/orchestration/action"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(actionOutcomes.WithLabelValues("extract", "failure"))
	RecordAction(action.TypeExtract, false)
	assert.Equal(t, before+1, testutil.ToFloat64(actionOutcomes.WithLabelValues("extract", "failure")))

	rotations := testutil.ToFloat64(credentialRotations)
	RecordRotation(0, 1)
	assert.Equal(t, rotations+1, testutil.ToFloat64(credentialRotations))

	fallbacks := testutil.ToFloat64(synthesisFallbacks)
	RecordSynthesisFallback(errors.New("exhausted"))
	assert.Equal(t, fallbacks+1, testutil.ToFloat64(synthesisFallbacks))
}

func TestRecordAction_UnknownTypesShareOneLabel(t *testing.T) {
	before := testutil.ToFloat64(actionOutcomes.WithLabelValues("unknown", "failure"))

	for _, raw := range []string{"translate", "summarize-all", "Search!!"} {
		a := action.Action{Type: action.ParseType(raw), RawType: raw}
		RecordAction(a.Type, false)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(actionOutcomes.WithLabelValues("unknown", "failure")))
}
