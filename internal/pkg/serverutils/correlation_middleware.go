package serverutils

import (
	"orchestration-agent/pkg/correlation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// CorrelationMiddleware echoes an incoming X-Execution-Id back on the response.
// The orchestration service generates one when the request carries none.
func CorrelationMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		// The id outlives the request in spans and published events, so it
		// must not alias fasthttp's reusable header buffer.
		if id := utils.CopyString(ctx.Get(correlation.Header)); id != "" {
			ctx.Locals("execution_id", id)
			ctx.Set(correlation.Header, id)
		}
		return ctx.Next()
	}
}
