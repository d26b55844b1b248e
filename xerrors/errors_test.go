package xerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type wrappedSentinel struct{ sentinel *Error }

func (w *wrappedSentinel) Error() string { return "custom failure" }
func (w *wrappedSentinel) Unwrap() error { return w.sentinel }

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[*Error]int{
		ErrLPParse:          http.StatusBadRequest,
		ErrLPEmptyInput:     http.StatusBadRequest,
		ErrLPTooLarge:       http.StatusBadRequest,
		ErrUnboundedProblem: http.StatusUnprocessableEntity,
		ErrMathConvergence:  http.StatusInternalServerError,
	}
	for e, want := range cases {
		assert.Equal(t, want, e.HTTPStatus(), e.Message)
	}
	assert.Equal(t, codes.FailedPrecondition, ErrUnboundedProblem.GRPCCode())
	assert.Equal(t, codes.InvalidArgument, ErrLPParse.ToGRPCStatus().Code())
}

func TestDeriveKeepsSentinelIntact(t *testing.T) {
	cause := errors.New("boom")
	e := Derive(ErrLPParse, "bad token", cause)

	assert.Equal(t, "bad token", e.Message)
	assert.Equal(t, "invalid linear expression", ErrLPParse.Message)
	assert.True(t, errors.Is(e, ErrLPParse))
	assert.False(t, errors.Is(e, ErrLPEmptyInput))
	assert.ErrorIs(t, e, cause)
	assert.NotEmpty(t, e.Stack)
}

func TestWrapKeepsTypeOfExistingError(t *testing.T) {
	inner := Derive(ErrUnboundedProblem, "unbounded", nil)
	outer := Wrap(fmt.Errorf("solve: %w", inner), ErrInternal, "solve failed")

	assert.Equal(t, ErrUnprocessable, outer.Type)
	assert.Equal(t, 422001, outer.Code)
	assert.Equal(t, "unbounded", inner.Message)

	plain := WrapInternal(errors.New("io"), "read failed")
	assert.Equal(t, ErrInternal, plain.Type)
	assert.Nil(t, Wrap(nil, ErrInternal, "x"))
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))

	direct := InvalidArg("bad")
	assert.Same(t, direct, Normalize(direct))

	custom := Normalize(&wrappedSentinel{sentinel: ErrUnboundedProblem})
	require.NotNil(t, custom)
	assert.Equal(t, "custom failure", custom.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, custom.HTTPStatus())

	timeout := Normalize(fmt.Errorf("solve: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, timeout.HTTPStatus())

	canceled := Normalize(context.Canceled)
	assert.Equal(t, http.StatusServiceUnavailable, canceled.HTTPStatus())

	other := Normalize(errors.New("disk full"))
	assert.Equal(t, http.StatusInternalServerError, other.HTTPStatus())
	assert.Equal(t, "internal error", other.Message)
}

func TestErrorTypeStringOutOfRange(t *testing.T) {
	assert.Equal(t, "Unprocessable", ErrUnprocessable.String())
	assert.Equal(t, "Unknown", ErrorType(99).String())
}
