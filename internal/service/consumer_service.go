package service

import (
	"context"
	"encoding/json"

	"orchestration-agent/internal/dto"
	"orchestration-agent/internal/entity"
	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/internal/repository/contract"
	"orchestration-agent/pkg/events"
	"orchestration-agent/pkg/orchestration/action"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService turns completion messages into an audit row and an outbound event.
// Either sink may be nil when its backing service is not configured.
type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	runRepository  contract.OrchestrationRunRepository
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	runRepository contract.OrchestrationRunRepository,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		runRepository:  runRepository,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.OrchestrationCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal completion message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	result := payload.Result

	if cs.runRepository != nil {
		run := &entity.OrchestrationRun{
			ExecutionId:       result.ExecutionID,
			AgentId:           result.AgentID,
			Prompt:            result.Prompt,
			DocumentIds:       result.DocumentIDs,
			Outcomes:          result.ActionsTaken,
			FinalResponse:     result.FinalResponse,
			Message:           result.Message,
			Success:           result.Success,
			PlanFallback:      payload.PlanFallback,
			SynthesisFallback: payload.SynthesisFallback,
			DurationMs:        payload.DurationMs,
			CreatedAt:         payload.CompletedAt,
		}
		if err := cs.runRepository.Create(ctx, run); err != nil {
			// No Nack: gochannel redelivers immediately and would spin while the database is down.
			cs.logger.Error("CONSUMER", "Failed to persist orchestration run", map[string]interface{}{
				"execution_id": result.ExecutionID,
				"error":        err.Error(),
			})
		}
	}

	if cs.eventPublisher != nil {
		evt := events.New(events.TypeOrchestrationCompleted, map[string]interface{}{
			"execution_id":       result.ExecutionID,
			"agent_id":           result.AgentID,
			"document_ids":       result.DocumentIDs,
			"actions_executed":   len(result.ActionsTaken),
			"actions_succeeded":  action.CountSucceeded(result.ActionsTaken),
			"plan_fallback":      payload.PlanFallback,
			"synthesis_fallback": payload.SynthesisFallback,
			"duration_ms":        payload.DurationMs,
		})
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to forward completion event", map[string]interface{}{
				"execution_id": result.ExecutionID,
				"error":        err.Error(),
			})
		}
	}

	cs.logger.Info("CONSUMER", "Completion processed", map[string]interface{}{
		"execution_id": result.ExecutionID,
	})
	msg.Ack()
}
