package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/agentstation/astronauts/pkg/errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

// TestSuccess tests the Success helper function.
func TestSuccess(t *testing.T) {
	resp := Success(map[string]string{"message": "ok"})
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Payload)
}

// TestFail tests the Fail helper function.
func TestFail(t *testing.T) {
	resp := Fail("astronaut with ID 1 not found")
	assert.False(t, resp.Success)
	assert.Equal(t, "astronaut with ID 1 not found", resp.Payload)
}

// TestJSON tests the envelope encoding.
func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, Success([]int{1, 2}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, map[string]any{"success": true, "payload": []any{1.0, 2.0}}, body)
}

// TestOKAndCreated tests the success helpers.
func TestOKAndCreated(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, "x")
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	Created(w, "x")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
}

// TestErrorHelpers tests all error response helpers.
func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name           string
		fn             func(w http.ResponseWriter)
		expectedStatus int
	}{
		{"BadRequest", func(w http.ResponseWriter) { BadRequest(w, "bad") }, http.StatusBadRequest},
		{"NotFound", func(w http.ResponseWriter) { NotFound(w, "missing") }, http.StatusNotFound},
		{"Conflict", func(w http.ResponseWriter) { Conflict(w, "dup") }, http.StatusConflict},
		{"MethodNotAllowed", func(w http.ResponseWriter) { MethodNotAllowed(w, "TRACE", "GET") }, http.StatusMethodNotAllowed},
		{"RateLimited", func(w http.ResponseWriter) { RateLimited(w) }, http.StatusTooManyRequests},
		{"InternalError", func(w http.ResponseWriter) { InternalError(w, errors.New("secret")) }, http.StatusInternalServerError},
		{"ServiceUnavailable", func(w http.ResponseWriter) { ServiceUnavailable(w, "down") }, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.fn(w)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.IsType(t, "", body["payload"])
			assert.NotContains(t, body["payload"], "secret")
		})
	}
}

func TestMethodNotAllowed_AllowHeader(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(w, "POST", "GET", "PUT")
	assert.Equal(t, "GET, PUT", w.Header().Get("Allow"))
}

// TestErrorFromType tests mapping typed errors to status codes.
func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", pkgerrors.NewNotFoundError("astronaut", "1"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", pkgerrors.NewNotFoundError("astronaut", "1")), http.StatusNotFound},
		{"already exists", pkgerrors.NewAlreadyExistsError("astronaut", "1"), http.StatusConflict},
		{"validation", pkgerrors.NewValidationError("id", "", "cannot be empty"), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
