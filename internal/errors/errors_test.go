package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotparts/internal/infrastructure"
)

func TestAppError(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	err := NewFileFailureError("Hot Parts 2024.01.15.xlsx", cause)

	assert.Equal(t, ErrTypeFileFailure, err.Type)
	assert.Equal(t, "Hot Parts 2024.01.15.xlsx", err.Context["file"])
	assert.Contains(t, err.Error(), "[FILE_FAILURE]")
	assert.Contains(t, err.Error(), "not a valid zip file")
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("pass failed: %w", err)
	assert.Equal(t, ErrTypeFileFailure, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(cause))

	plain := NewNotFoundError("master")
	assert.Equal(t, "[NOT_FOUND] master not found", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestProblemDetailsJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "missing", "/api/x").
		WithExtension("trace_id", "abc")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeNotFound, decoded["type"])
	assert.Equal(t, float64(404), decoded["status"])
	assert.Equal(t, "abc", decoded["trace_id"])
	assert.Equal(t, "/api/x", decoded["instance"])
}

func TestHandleError(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"api validation", ErrValidation("count", "must be at most 100"), http.StatusBadRequest, TypeValidation},
		{"api not found", NotFoundError("kind"), http.StatusNotFound, TypeNotFound},
		{"app not found", NewNotFoundError("master"), http.StatusNotFound, TypeNotFound},
		{"file failure", NewParsingError("failed to extract hot parts", nil).WithContext("file", "a.xlsx"), http.StatusUnprocessableEntity, TypeFileFailure},
		{"storage", NewStorageError("insert failed", errors.New("locked")), http.StatusInternalServerError, TypeStorage},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, TypeTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "trace-1", body["trace_id"])
		})
	}
}

func TestHandleErrorHidesInternalDetail(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)
	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, req, NewStorageError("insert failed", errors.New("database is locked")))

	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	handler := NewErrorHandler(nil, false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/stats", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}

func TestHandlePanic(t *testing.T) {
	handler := NewErrorHandler(slog.New(slog.NewJSONHandler(io.Discard, nil)), true)
	rec := httptest.NewRecorder()

	handler.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil), "kaboom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "kaboom")
}
