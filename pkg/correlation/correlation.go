// Package correlation carries the execution id of a request through context
// so every outbound call can tag itself with it.
package correlation

import (
	"context"
	"net/http"
)

const Header = "X-Execution-Id"

type ctxKey struct{}

func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func ExecutionID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Apply sets the correlation header on req when ctx carries an execution id.
func Apply(ctx context.Context, req *http.Request) {
	if id := ExecutionID(ctx); id != "" {
		req.Header.Set(Header, id)
	}
}
