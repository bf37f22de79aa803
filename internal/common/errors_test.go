package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", fmt.Errorf("project x: %w", ErrNotFound), http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("not yours: %w", ErrForbidden), http.StatusForbidden},
		{"validation", FieldError("content", "required"), http.StatusUnprocessableEntity},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"invalid state", fmt.Errorf("inactive: %w", ErrInvalidState), http.StatusBadRequest},
		{"conflict", ErrConflict, http.StatusConflict},
		{"service unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(map[string]string{"title": "bad title", "points": "bad points"})

	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "validation failed: points: bad points; title: bad title", err.Error())

	var vErr *ValidationError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &vErr))
	assert.Len(t, vErr.Fields, 2)
}

func TestRespondWithErr(t *testing.T) {
	t.Run("validation errors keep their fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RespondWithErr(rec, FieldError("content", "The content field is required."))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"errors":{"content":"The content field is required."}}`, rec.Body.String())
	})

	t.Run("internal errors are masked", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RespondWithErr(rec, errors.New("connection refused on 10.0.0.3"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	})

	t.Run("domain errors carry their message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RespondWithErr(rec, fmt.Errorf("this coding session is no longer active: %w", ErrInvalidState))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "no longer active")
	})
}
