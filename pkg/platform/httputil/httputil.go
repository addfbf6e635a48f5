// Package httputil is the single chokepoint between domain errors and HTTP.
// Every handler writes responses through it so the status mapping and the
// response envelope stay consistent across endpoints.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "curia/pkg/domain-errors"
)

// Envelope is the uniform response shape the dashboard consumes. Data, when
// present, is inlined next to the envelope fields.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures happen after
// the status line is committed, so they can only be logged by the caller's
// middleware, not surfaced.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a success envelope with optional data.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// WriteError maps a domain error to its HTTP status and writes a failure
// envelope. Internal errors get a generic message so store and provider
// details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.GetCode(err)
	message := dErrors.UserMessage(err)
	if code == dErrors.CodeInternal || code == dErrors.CodeInvariantViolation {
		message = "something went wrong, please try again"
	}
	WriteJSON(w, statusFor(code), Envelope{Success: false, Message: message})
}

func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidArgument, dErrors.CodeWeakCredential:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeAlreadyExists, dErrors.CodeAlreadyProcessed, dErrors.CodeInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Decode parses a JSON request body into T. A malformed body writes the 400
// response itself and returns ok=false.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, dErrors.New(dErrors.CodeInvalidArgument, "request body is not valid JSON"))
		return req, false
	}
	return req, true
}
