package controller

import (
	"orchestration-agent/internal/dto"
	"orchestration-agent/internal/pkg/serverutils"
	"orchestration-agent/internal/service"
	"orchestration-agent/pkg/correlation"

	"github.com/gofiber/fiber/v2"
)

type IOrchestrationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Orchestrate(ctx *fiber.Ctx) error
	GetResult(ctx *fiber.Ctx) error
	ListRuns(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type orchestrationController struct {
	service service.IOrchestrationService
}

func NewOrchestrationController(service service.IOrchestrationService) IOrchestrationController {
	return &orchestrationController{service: service}
}

// RegisterRoutes mounts the health probes on r and the orchestration routes
// on r/api/v1. auth is attached per route, not to the group, so it does not
// run ahead of the progress stream, which checks its own query token.
func (c *orchestrationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Get("/", c.Health)
	r.Get("/health", c.Health)

	h := r.Group("/api/v1")
	h.Post("/agents/orchestrate", auth, c.Orchestrate)
	h.Post("/orchestrate", auth, c.Orchestrate)
	h.Get("/orchestrations", auth, c.ListRuns)
	h.Get("/orchestrations/:executionId", auth, c.GetResult)
}

func (c *orchestrationController) Orchestrate(ctx *fiber.Ctx) error {
	var req dto.OrchestrationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid request body")
	}

	if req.ExecutionID == "" {
		if id, ok := ctx.Locals("execution_id").(string); ok {
			req.ExecutionID = id
		}
	}

	res, err := c.service.Orchestrate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	ctx.Set(correlation.Header, res.ExecutionID)
	return ctx.JSON(res)
}

// GetResult answers 202 with the current stage while the execution is still running.
func (c *orchestrationController) GetResult(ctx *fiber.Ctx) error {
	executionID := ctx.Params("executionId")

	if status, running := c.service.GetStatus(executionID); running {
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Execution in progress", status))
	}

	res, err := c.service.GetResult(ctx.UserContext(), executionID)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get orchestration result", res))
}

func (c *orchestrationController) ListRuns(ctx *fiber.Ctx) error {
	var req dto.ListRunsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.NewBadRequestError("Invalid query parameters")
	}

	res, err := c.service.ListRuns(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list orchestration runs", res))
}

func (c *orchestrationController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.Health())
}
