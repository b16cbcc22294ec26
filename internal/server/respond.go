// Package server exposes the admission API over JSON/HTTP. It is
// transport plumbing only: handlers decode requests, call the services,
// and map domain error codes to statuses.
package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/journeyhub/journeyhub/internal/journey"
)

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps an error to a JSON error body. Domain errors carry
// their stable code; anything else is an opaque internal error.
func writeError(w http.ResponseWriter, err error) {
	code := journey.CodeOf(err)
	if code == "" {
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    "INTERNAL",
			Message: "internal server error",
		})
		return
	}
	writeJSON(w, statusFor(code), errorBody{Code: string(code), Message: err.Error()})
}

// statusFor maps domain codes to HTTP statuses. The code, not the
// status, is the contract clients branch on.
func statusFor(code journey.Code) int {
	switch code {
	case journey.CodeNotFound:
		return http.StatusNotFound
	case journey.CodeUnauthorized:
		return http.StatusForbidden
	case journey.CodePasswordRequired, journey.CodeInvalidPassword:
		return http.StatusUnauthorized
	case journey.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case journey.CodeNameTaken, journey.CodeRejected, journey.CodeJourneyLocked,
		journey.CodeCannotRemoveLeader, journey.CodeInputLocked:
		return http.StatusConflict
	case journey.CodeInvalidOrUsedToken:
		return http.StatusGone
	default:
		return http.StatusBadRequest
	}
}

// decodeLenient decodes a JSON body into v, treating an empty body as an
// empty request.
func decodeLenient(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    "BAD_REQUEST",
			Message: "invalid request body",
		})
		return false
	}
	return true
}
