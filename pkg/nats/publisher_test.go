package nats

import (
	"testing"

	"orchestration-agent/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "orchestration.orchestration_completed", Subject(events.TypeOrchestrationCompleted))
	assert.Equal(t, "orchestration.action_completed", Subject(events.TypeActionCompleted))
}
