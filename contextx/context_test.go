package contextx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestScopedValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Equal(t, "0.0.0.0", GetIP(ctx))
	assert.Empty(t, LogAttrs(ctx))

	ctx = WithRequestID(ctx, "req-1")
	ctx = WithSolveID(ctx, "LP42")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "LP42", GetSolveID(ctx))
	assert.Equal(t, []any{"request_id", "req-1", "solve_id", "LP42"}, LogAttrs(ctx))

	ctx = WithIP(ctx, "10.1.2.3")
	assert.Equal(t, []any{"request_id", "req-1", "client_ip", "10.1.2.3", "solve_id", "LP42"}, LogAttrs(ctx))
}
