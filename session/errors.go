package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTurnInFlight is returned when a message is sent while a reply is
	// still streaming.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrEmptyMessage is returned for blank user messages.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoProvider is returned when no model provider is configured.
	ErrNoProvider = errors.New("no model provider configured")

	// ErrAuthRequired is returned after an authentication failure until a
	// new provider is set.
	ErrAuthRequired = errors.New("authentication required: reconnect your API key")
)

// Synthetic assistant replies recorded when a stream fails.
const (
	AuthLostMessage       = "Authentication lost. Please reconnect your API key."
	ConnectionLostMessage = "Error: Connection lost. Re-architecting..."
)

// FailureKind classifies why a turn ended early.
type FailureKind int

const (
	// FailureConnection is any transport failure that is not an auth failure.
	FailureConnection FailureKind = iota
	// FailureAuth means the credentials were rejected.
	FailureAuth
	// FailureAbandoned means the turn was cancelled before it finished.
	FailureAbandoned
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth"
	case FailureAbandoned:
		return "abandoned"
	default:
		return "connection"
	}
}

// TurnError reports a turn that ended before the stream completed.
type TurnError struct {
	TurnID string
	Kind   FailureKind
	Err    error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %s failed (%s): %v", e.TurnID, e.Kind, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// Classify maps a transport error to a failure kind. Auth failures are
// recognized by their message text since providers do not share error types.
func Classify(err error) FailureKind {
	if errors.Is(err, context.Canceled) {
		return FailureAbandoned
	}
	msg := err.Error()
	if strings.Contains(msg, "entity was not found") || strings.Contains(msg, "API key") {
		return FailureAuth
	}
	return FailureConnection
}

// syntheticReply returns the assistant text shown for a failed turn.
func syntheticReply(kind FailureKind) string {
	if kind == FailureAuth {
		return AuthLostMessage
	}
	return ConnectionLostMessage
}
