package correlation

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "http://example.test", nil)
	Apply(context.Background(), req)
	assert.Empty(t, req.Header.Get(Header))

	ctx := WithExecutionID(context.Background(), "exec-42")
	Apply(ctx, req)
	assert.Equal(t, "exec-42", req.Header.Get(Header))
	assert.Equal(t, "exec-42", ExecutionID(ctx))
}
