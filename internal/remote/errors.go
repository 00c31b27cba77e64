// Package remote holds the error vocabulary shared by the remote backends.
// Provider-specific failures are normalized into *Error at the boundary so
// the auth gateway and task store can classify them without knowing which
// backend produced them.
package remote

import (
	"errors"
	"fmt"
	"strings"
)

// Auth provider codes
const (
	CodeInvalidCredential = "auth/invalid-credential"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodePopupClosed       = "auth/popup-closed-by-user"
	CodeOperationDenied   = "auth/operation-not-allowed"
	CodeTokenExpired      = "auth/user-token-expired"
)

// Document store codes
const (
	CodePermissionDenied   = "permission-denied"
	CodeFailedPrecondition = "failed-precondition"
	CodeNotFound           = "not-found"
	CodeUnauthenticated    = "unauthenticated"
	CodeUnavailable        = "unavailable"
	CodeUnknown            = "unknown"
)

// Error is a failure reported by a remote service.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an *Error.
func Errorf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the remote code carried by err, or "".
func CodeOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// MessageOf returns the provider's raw message, falling back to err.Error().
func MessageOf(err error) string {
	var re *Error
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// MentionsIndex reports whether the failure is about a missing or building
// query index.
func MentionsIndex(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "index")
}
