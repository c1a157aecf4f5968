package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"orchestration-agent/internal/dto"
	"orchestration-agent/internal/entity"
	"orchestration-agent/internal/metrics"
	"orchestration-agent/internal/pkg/logger"
	"orchestration-agent/internal/pkg/serverutils"
	"orchestration-agent/internal/repository/contract"
	"orchestration-agent/internal/repository/memory"
	"orchestration-agent/internal/repository/specification"
	"orchestration-agent/pkg/correlation"
	"orchestration-agent/pkg/events"
	"orchestration-agent/pkg/orchestration/action"
	"orchestration-agent/pkg/orchestration/document"
	"orchestration-agent/pkg/orchestration/executor"
	"orchestration-agent/pkg/orchestration/planner"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName     = "orchestration-agent"
	defaultRunLimit = 20
)

var orchestrationTracer trace.Tracer = otel.Tracer("orchestration-agent/internal/service")

type ActionPlanner interface {
	Plan(ctx context.Context, userQuery string, docs []document.Context) (planner.Plan, error)
}

type ActionExecutor interface {
	Execute(ctx context.Context, plan []action.Action, docs []document.Context, observe executor.Observer) []action.Outcome
}

type ResponseSynthesizer interface {
	Synthesize(ctx context.Context, userQuery string, outcomes []action.Outcome, docs []document.Full) (string, error)
}

// ProgressNotifier receives stage and action events of a running execution.
type ProgressNotifier interface {
	Publish(executionID string, event events.Event)
}

type IOrchestrationService interface {
	Orchestrate(ctx context.Context, req *dto.OrchestrationRequest) (*dto.OrchestrationResponse, error)
	GetResult(ctx context.Context, executionID string) (*dto.OrchestrationResponse, error)
	GetStatus(executionID string) (*dto.ExecutionStatusResponse, bool)
	ListRuns(ctx context.Context, req *dto.ListRunsRequest) ([]*dto.OrchestrationRunSummary, error)
	Health() dto.HealthResponse
}

// orchestrationService runs the fetch, plan, execute, synthesize pipeline.
// resultStore, runRepository, publisherService and notifier are optional.
type orchestrationService struct {
	fetcher          document.Fetcher
	planner          ActionPlanner
	executor         ActionExecutor
	synthesizer      ResponseSynthesizer
	executions       *memory.ExecutionRepository
	resultStore      contract.ResultStore
	runRepository    contract.OrchestrationRunRepository
	publisherService IPublisherService
	notifier         ProgressNotifier
	defaultAgentID   string
	llmConfigured    bool
	logger           logger.ILogger
}

func NewOrchestrationService(
	fetcher document.Fetcher,
	actionPlanner ActionPlanner,
	actionExecutor ActionExecutor,
	synthesizer ResponseSynthesizer,
	executions *memory.ExecutionRepository,
	resultStore contract.ResultStore,
	runRepository contract.OrchestrationRunRepository,
	publisherService IPublisherService,
	notifier ProgressNotifier,
	defaultAgentID string,
	llmConfigured bool,
	log logger.ILogger,
) IOrchestrationService {
	if defaultAgentID == "" {
		defaultAgentID = ServiceName
	}
	return &orchestrationService{
		fetcher:          fetcher,
		planner:          actionPlanner,
		executor:         actionExecutor,
		synthesizer:      synthesizer,
		executions:       executions,
		resultStore:      resultStore,
		runRepository:    runRepository,
		publisherService: publisherService,
		notifier:         notifier,
		defaultAgentID:   defaultAgentID,
		llmConfigured:    llmConfigured,
		logger:           log,
	}
}

func (s *orchestrationService) Orchestrate(ctx context.Context, req *dto.OrchestrationRequest) (*dto.OrchestrationResponse, error) {
	req.Normalize()
	if err := serverutils.ValidateRequest(req); err != nil {
		metrics.RecordRequest(metrics.OutcomeInvalid)
		return nil, err
	}

	started := time.Now()
	executionID := req.ExecutionID
	if executionID == "" {
		executionID = uuid.NewString()
	}
	agentID := req.AgentID
	if agentID == "" {
		agentID = s.defaultAgentID
	}

	ctx = correlation.WithExecutionID(ctx, executionID)
	ctx, span := orchestrationTracer.Start(ctx, "orchestration.run",
		trace.WithAttributes(
			attribute.String("execution.id", executionID),
			attribute.String("agent.id", agentID),
			attribute.Int("documents.requested", len(req.DocumentIDs)),
		),
	)
	defer span.End()

	log := s.logger.With(map[string]interface{}{"execution_id": executionID})
	log.Info("ORCHESTRATOR", "Orchestration started", map[string]interface{}{
		"agent_id":  agentID,
		"documents": len(req.DocumentIDs),
	})

	status := &entity.ExecutionStatus{ExecutionId: executionID, StartedAt: started}
	defer s.executions.Delete(executionID)

	// 1. Document previews
	s.advance(status, entity.StageFetchingContext)
	contexts := s.fetchContexts(ctx, log, req.DocumentIDs)
	if len(contexts) == 0 {
		err := serverutils.NewNotFoundError("No document contexts could be retrieved")
		s.fail(span, status, log, metrics.OutcomeNoDocuments, err)
		return nil, err
	}

	// 2. Plan
	s.advance(status, entity.StagePlanning)
	planCtx, planSpan := orchestrationTracer.Start(ctx, "orchestration.plan")
	plan, err := s.planner.Plan(planCtx, req.Prompt, contexts)
	planSpan.End()
	if err != nil {
		appErr := serverutils.NewServiceUnavailableError("Text generation is unavailable", err)
		s.fail(span, status, log, metrics.OutcomeUnavailable, appErr)
		return nil, appErr
	}
	if plan.Fallback {
		metrics.RecordPlanFallback()
	}
	span.AddEvent("plan.complete", trace.WithAttributes(
		attribute.Int("plan.actions", len(plan.Actions)),
		attribute.Int("plan.attempts", plan.Attempts),
		attribute.Bool("plan.fallback", plan.Fallback),
	))

	// 3. Execute
	status.TotalActions = len(plan.Actions)
	s.advance(status, entity.StageExecuting)
	outcomes := s.executor.Execute(ctx, plan.Actions, contexts, func(index, total int, outcome action.Outcome) {
		metrics.RecordAction(outcome.Action.Type, outcome.Success)
		status.CompletedActions = index + 1
		s.executions.Save(status)
		s.notify(executionID, events.New(events.TypeActionCompleted, map[string]interface{}{
			"index":   index,
			"total":   total,
			"type":    outcome.Action.TypeName(),
			"success": outcome.Success,
		}))
	})

	// 4. Full documents
	s.advance(status, entity.StageFetchingFull)
	fullDocs := s.fetchFull(ctx, log, contexts)

	// 5. Synthesize
	s.advance(status, entity.StageSynthesizing)
	synthCtx, synthSpan := orchestrationTracer.Start(ctx, "orchestration.synthesize")
	answer, synthErr := s.synthesizer.Synthesize(synthCtx, req.Prompt, outcomes, fullDocs)
	synthSpan.End()
	if synthErr != nil {
		metrics.RecordSynthesisFallback(synthErr)
	}

	result := &dto.OrchestrationResponse{
		Success:       true,
		AgentID:       agentID,
		ExecutionID:   executionID,
		Prompt:        req.Prompt,
		DocumentIDs:   req.DocumentIDs,
		ActionsTaken:  outcomes,
		FinalResponse: answer,
		Message:       fmt.Sprintf("Analysis completed: %d actions executed over %d documents", len(outcomes), len(fullDocs)),
	}

	duration := time.Since(started)
	s.advance(status, entity.StageCompleted)
	s.notify(executionID, events.New(events.TypeOrchestrationCompleted, map[string]interface{}{
		"actions_executed":  len(outcomes),
		"actions_succeeded": action.CountSucceeded(outcomes),
		"duration_ms":       duration.Milliseconds(),
	}))
	metrics.RecordRequest(metrics.OutcomeSuccess)
	metrics.ObserveDuration(duration)

	s.store(ctx, log, result)
	s.publishCompletion(ctx, log, &dto.OrchestrationCompletedMessage{
		Result:            *result,
		PlanFallback:      plan.Fallback,
		SynthesisFallback: synthErr != nil,
		DurationMs:        duration.Milliseconds(),
		CompletedAt:       time.Now(),
	})

	span.SetStatus(codes.Ok, "")
	log.Info("ORCHESTRATOR", "Orchestration completed", map[string]interface{}{
		"actions":            len(outcomes),
		"succeeded":          action.CountSucceeded(outcomes),
		"documents":          len(fullDocs),
		"plan_fallback":      plan.Fallback,
		"synthesis_fallback": synthErr != nil,
		"duration_ms":        duration.Milliseconds(),
	})
	return result, nil
}

// fetchContexts keeps request order and drops ids that could not be fetched.
func (s *orchestrationService) fetchContexts(ctx context.Context, log logger.ILogger, ids []string) []document.Context {
	contexts := make([]document.Context, 0, len(ids))
	for _, id := range ids {
		c, err := s.fetcher.FetchContext(ctx, id)
		if err != nil {
			log.Warn("ORCHESTRATOR", "Skipping document without context", map[string]interface{}{
				"document_id": id,
				"error":       err.Error(),
			})
			continue
		}
		contexts = append(contexts, c)
	}
	return contexts
}

// fetchFull degrades to the preview excerpt when the full text is unavailable.
func (s *orchestrationService) fetchFull(ctx context.Context, log logger.ILogger, contexts []document.Context) []document.Full {
	docs := make([]document.Full, 0, len(contexts))
	for _, c := range contexts {
		full, err := s.fetcher.FetchFull(ctx, c.ID)
		if err != nil {
			log.Warn("ORCHESTRATOR", "Using excerpt in place of full document", map[string]interface{}{
				"document_id": c.ID,
				"error":       err.Error(),
			})
			full = document.Full{
				ID:         c.ID,
				Title:      c.Title,
				Text:       c.Excerpt,
				SourceMode: document.SourceError,
			}
		}
		docs = append(docs, full)
	}
	return docs
}

func (s *orchestrationService) advance(status *entity.ExecutionStatus, stage entity.ExecutionStage) {
	status.Stage = stage
	s.executions.Save(status)
	s.notify(status.ExecutionId, events.New(events.TypeStageChanged, map[string]interface{}{
		"stage":             string(stage),
		"completed_actions": status.CompletedActions,
		"total_actions":     status.TotalActions,
	}))
}

func (s *orchestrationService) fail(span trace.Span, status *entity.ExecutionStatus, log logger.ILogger, outcome string, err *serverutils.AppError) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	metrics.RecordRequest(outcome)

	status.Stage = entity.StageFailed
	s.notify(status.ExecutionId, events.New(events.TypeOrchestrationFailed, map[string]interface{}{
		"code":    err.Code,
		"message": err.Message,
	}))
	log.Error("ORCHESTRATOR", "Orchestration failed", map[string]interface{}{
		"code":  err.Code,
		"error": err.Error(),
	})
}

func (s *orchestrationService) notify(executionID string, evt events.Event) {
	if s.notifier != nil {
		s.notifier.Publish(executionID, evt)
	}
}

func (s *orchestrationService) store(ctx context.Context, log logger.ILogger, result *dto.OrchestrationResponse) {
	if s.resultStore == nil {
		return
	}
	if err := s.resultStore.Save(ctx, result); err != nil {
		log.Warn("ORCHESTRATOR", "Failed to cache result", map[string]interface{}{"error": err.Error()})
	}
}

func (s *orchestrationService) publishCompletion(ctx context.Context, log logger.ILogger, msg *dto.OrchestrationCompletedMessage) {
	if s.publisherService == nil {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Warn("ORCHESTRATOR", "Failed to encode completion message", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		log.Warn("ORCHESTRATOR", "Failed to publish completion message", map[string]interface{}{"error": err.Error()})
	}
}

// GetResult looks in the result cache first, then the audit table.
func (s *orchestrationService) GetResult(ctx context.Context, executionID string) (*dto.OrchestrationResponse, error) {
	if s.resultStore != nil {
		result, err := s.resultStore.Get(ctx, executionID)
		if err != nil {
			s.logger.Warn("ORCHESTRATOR", "Result cache lookup failed", map[string]interface{}{
				"execution_id": executionID,
				"error":        err.Error(),
			})
		} else if result != nil {
			return result, nil
		}
	}

	if s.runRepository != nil {
		run, err := s.runRepository.FindOne(ctx, specification.ByExecutionID{ExecutionID: executionID})
		if err != nil {
			return nil, serverutils.NewInternalError("Failed to load orchestration run", err)
		}
		if run != nil {
			return &dto.OrchestrationResponse{
				Success:       run.Success,
				AgentID:       run.AgentId,
				ExecutionID:   run.ExecutionId,
				Prompt:        run.Prompt,
				DocumentIDs:   run.DocumentIds,
				ActionsTaken:  run.Outcomes,
				FinalResponse: run.FinalResponse,
				Message:       run.Message,
			}, nil
		}
	}

	return nil, serverutils.NewNotFoundError(fmt.Sprintf("No result for execution %s", executionID))
}

func (s *orchestrationService) GetStatus(executionID string) (*dto.ExecutionStatusResponse, bool) {
	status, ok := s.executions.Get(executionID)
	if !ok {
		return nil, false
	}
	return &dto.ExecutionStatusResponse{
		ExecutionID:      status.ExecutionId,
		Stage:            string(status.Stage),
		CompletedActions: status.CompletedActions,
		TotalActions:     status.TotalActions,
	}, true
}

// ListRuns returns audited runs, newest first.
func (s *orchestrationService) ListRuns(ctx context.Context, req *dto.ListRunsRequest) ([]*dto.OrchestrationRunSummary, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if s.runRepository == nil {
		return nil, serverutils.NewServiceUnavailableError("Run history is not configured", nil)
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultRunLimit
	}
	specs := []specification.Specification{}
	if req.AgentID != "" {
		specs = append(specs, specification.ByAgentID{AgentID: req.AgentID})
	}
	if req.Since != "" {
		since, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			return nil, serverutils.NewBadRequestError("since must be an RFC 3339 timestamp")
		}
		specs = append(specs, specification.CreatedSince{Since: since})
	}
	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)

	runs, err := s.runRepository.FindAll(ctx, specs...)
	if err != nil {
		return nil, serverutils.NewInternalError("Failed to list orchestration runs", err)
	}

	out := make([]*dto.OrchestrationRunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, &dto.OrchestrationRunSummary{
			ExecutionID:       run.ExecutionId,
			AgentID:           run.AgentId,
			Prompt:            run.Prompt,
			DocumentIDs:       run.DocumentIds,
			ActionsExecuted:   len(run.Outcomes),
			ActionsSucceeded:  run.SucceededActions(),
			PlanFallback:      run.PlanFallback,
			SynthesisFallback: run.SynthesisFallback,
			DurationMs:        run.DurationMs,
			CreatedAt:         run.CreatedAt,
		})
	}
	return out, nil
}

func (s *orchestrationService) Health() dto.HealthResponse {
	return dto.HealthResponse{
		Status:        "healthy",
		Service:       ServiceName,
		LLMConfigured: s.llmConfigured,
		ServiceReady:  true,
	}
}
