package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestFrom(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
		assert.Equal(t, codes.OK, CodeOf(nil))
	})

	t.Run("taxonomy errors pass through", func(t *testing.T) {
		orig := PermissionDenied("not yours")
		got := From(orig)
		assert.Same(t, orig, got)
	})

	t.Run("wrapped taxonomy errors pass through", func(t *testing.T) {
		orig := NotFound("character not found")
		got := From(fmt.Errorf("lookup: %w", orig))
		assert.Same(t, orig, got)
		assert.Equal(t, codes.NotFound, CodeOf(fmt.Errorf("lookup: %w", orig)))
	})

	t.Run("unexpected errors become internal", func(t *testing.T) {
		cause := errors.New("dial tcp 10.0.0.3:5432: connection refused")
		got := From(cause)
		require.NotNil(t, got)
		assert.Equal(t, codes.Internal, got.Code)
		assert.Equal(t, "internal error", got.Message)
		assert.NotContains(t, got.Message, "10.0.0.3")
		assert.ErrorIs(t, got, cause)
	})
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "InvalidArgument: prompt is required", InvalidArgument("prompt is required").Error())
	assert.Contains(t, Internal("storage failure", errors.New("boom")).Error(), "boom")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code codes.Code
		want int
	}{
		{codes.OK, http.StatusOK},
		{codes.Unauthenticated, http.StatusUnauthorized},
		{codes.InvalidArgument, http.StatusBadRequest},
		{codes.NotFound, http.StatusNotFound},
		{codes.PermissionDenied, http.StatusForbidden},
		{codes.FailedPrecondition, http.StatusPreconditionFailed},
		{codes.Internal, http.StatusInternalServerError},
		{codes.Unavailable, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap("x", nil))

	denied := PermissionDenied("not yours")
	assert.Same(t, denied, Wrap("failed to load", fmt.Errorf("step: %w", denied)))

	got := Wrap("failed to load", errors.New("minio: access denied for key characters/u1"))
	assert.Equal(t, codes.Internal, got.Code)
	assert.Equal(t, "failed to load", got.Message)
}
