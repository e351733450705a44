// Package response provides the standardized HTTP response envelope and
// helpers for the astronauts API server. Every response body has the form
// {"success": bool, "payload": ...}; on failure the payload is a message.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	pkgerrors "github.com/agentstation/astronauts/pkg/errors"
)

// Response represents the standardized API response envelope.
type Response struct {
	Success bool `json:"success"`
	Payload any  `json:"payload"`
}

// Success creates a successful response with payload.
func Success(payload any) Response {
	return Response{
		Success: true,
		Payload: payload,
	}
}

// Fail creates an error response carrying message as the payload.
func Fail(message string) Response {
	return Response{
		Success: false,
		Payload: message,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are ignored as headers are already sent (best effort)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusOK, Success(payload))
}

// Created writes a successful response with 201 status.
func Created(w http.ResponseWriter, payload any) {
	JSON(w, http.StatusCreated, Success(payload))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, Fail(message))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message string) {
	JSON(w, http.StatusNotFound, Fail(message))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message string) {
	JSON(w, http.StatusConflict, Fail(message))
}

// MethodNotAllowed writes a 405 error response and the Allow header.
func MethodNotAllowed(w http.ResponseWriter, method string, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	JSON(w, http.StatusMethodNotAllowed, Fail("Method "+method+" is not supported for this endpoint"))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter) {
	JSON(w, http.StatusTooManyRequests, Fail("Too many requests. Please try again later."))
}

// InternalError writes a 500 error response. The error is not exposed to
// the client; logging is the caller's job.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail("Internal server error"))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(message))
}

// ErrorFromType maps typed errors to appropriate HTTP responses.
func ErrorFromType(w http.ResponseWriter, err error) {
	var (
		notFound *pkgerrors.NotFoundError
		exists   *pkgerrors.AlreadyExistsError
		invalid  *pkgerrors.ValidationError
	)

	switch {
	case errors.As(err, &notFound):
		NotFound(w, notFound.Error())
	case errors.As(err, &exists):
		Conflict(w, exists.Error())
	case errors.As(err, &invalid):
		BadRequest(w, invalid.Error())
	default:
		InternalError(w, err)
	}
}
