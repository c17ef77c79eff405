// Package failure defines the error kinds shared by the DutyFlow client.
//
// Every remote or storage failure is converted into an *Error at the point of
// call so the dashboard and palette workbench can turn it into a notification
// without inspecting transport details.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNetwork     Kind = "network"
	KindServer      Kind = "server"
	KindPersistence Kind = "persistence"
	KindForbidden   Kind = "forbidden"
	KindBusy        Kind = "busy"
	KindNotReady    Kind = "not_ready"
)

// Error carries a kind, the operation that failed and a human-readable
// message safe to show in the UI.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind so callers can write
// errors.Is(err, failure.ErrBusy).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Op == "" && other.Message == "" && other.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrNetwork     = &Error{Kind: KindNetwork}
	ErrServer      = &Error{Kind: KindServer}
	ErrPersistence = &Error{Kind: KindPersistence}
	ErrForbidden   = &Error{Kind: KindForbidden}
	ErrBusy        = &Error{Kind: KindBusy}
	ErrNotReady    = &Error{Kind: KindNotReady}
)

// Validation reports bad user input detected before any network call.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// Network wraps a transport failure.
func Network(op string, err error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: "request failed", Err: err}
}

// Server reports a non-success or unparseable response.
func Server(op string, status int, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("unexpected status %d", status)
	}
	return &Error{Kind: KindServer, Op: op, Status: status, Message: message}
}

// Persistence wraps a local storage failure.
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Op: op, Message: "storage unavailable", Err: err}
}

// New builds an error of an arbitrary kind.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// KindOf returns the kind of err, or "" when err is not a failure.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Message returns the UI-facing message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}
