package auth

import (
	"context"
	"errors"

	"github.com/tgienger/lumina/internal/remote"
)

// Kind is the closed set of authentication failures the UI distinguishes.
type Kind int

const (
	// KindUnknown carries the provider's raw message
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindEmailInUse
	KindWeakPassword
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid-credentials"
	case KindEmailInUse:
		return "email-in-use"
	case KindWeakPassword:
		return "weak-password"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is an authentication failure with a message fit for display.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of an auth error, KindUnknown otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

type operation int

const (
	opSignIn operation = iota
	opRegister
	opGoogle
)

var fallbackMessages = map[operation]string{
	opSignIn:   "Login failed",
	opRegister: "Registration failed",
	opGoogle:   "Google Authentication failed",
}

// classify maps a provider failure onto a Kind. Known codes only count for
// the operation that can produce them; anything else keeps the raw message.
func classify(op operation, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindCancelled, Message: "cancelled", Err: err}
	}

	code := remote.CodeOf(err)
	switch {
	case code == remote.CodePopupClosed:
		return &Error{Kind: KindCancelled, Message: "cancelled", Err: err}
	case op == opSignIn && (code == remote.CodeInvalidCredential ||
		code == remote.CodeUserNotFound || code == remote.CodeWrongPassword):
		return &Error{Kind: KindInvalidCredentials, Message: "Email or password is incorrect", Err: err}
	case op == opRegister && code == remote.CodeEmailInUse:
		return &Error{Kind: KindEmailInUse, Message: "User already exists. Please sign in", Err: err}
	case op == opRegister && code == remote.CodeWeakPassword:
		return &Error{Kind: KindWeakPassword, Message: "Password should be at least 6 characters", Err: err}
	}

	msg := remote.MessageOf(err)
	if msg == "" {
		msg = fallbackMessages[op]
	}
	return &Error{Kind: KindUnknown, Message: msg, Err: err}
}
