// Package journey defines the admission domain's error taxonomy and
// membership states. Every expected outcome of an admission operation is a
// distinct coded error so that transports can branch on a stable code
// instead of matching message substrings.
package journey

import (
	"errors"
	"fmt"
)

// Code identifies an expected, user-facing failure of an admission
// operation. Codes are stable API surface.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidOrUsedToken Code = "INVALID_OR_USED_TOKEN"
	CodePasswordRequired   Code = "PASSWORD_REQUIRED"
	CodeInvalidPassword    Code = "INVALID_PASSWORD"
	CodeJourneyLocked      Code = "JOURNEY_LOCKED"
	CodeRejected           Code = "REJECTED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeCannotRemoveLeader Code = "CANNOT_REMOVE_LEADER"
	CodeTooManyRequests    Code = "TOO_MANY_REQUESTS"
	CodeNameTaken          Code = "NAME_TAKEN"
	CodeInputLocked        Code = "INPUT_LOCKED"
)

// Error is an expected domain failure carrying a stable code.
// Unexpected persistence or transport failures are returned as plain
// wrapped errors and surface to callers as internal errors.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errf builds a coded domain error.
func Errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the domain code from err, or "" if err is not a domain
// error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err carries the given domain code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
