package optimistic

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind classifies why a mutation did not confirm
type Kind string

const (
	KindValidationFailed    Kind = "validation_failed"
	KindNeedsAuthentication Kind = "needs_authentication"
	KindPersistenceFailed   Kind = "persistence_failed"
	KindNetworkFailure      Kind = "network_failure"
)

// FallbackMessage is shown when the durable layer returned no usable message
const FallbackMessage = "Something went wrong. Please try again."

// ErrInFlight is returned when a mutation targets an entity that already has one pending
var ErrInFlight = errors.New("a change for this item is already in progress")

// Error is the failure carried by a non-confirmed Outcome
type Error struct {
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	RedirectTo string `json:"redirect_to,omitempty"`
	Err        error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or "" when err is not an *Error
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}

// Classifier maps a persistence error to KindPersistenceFailed or KindNetworkFailure
type Classifier func(error) Kind

// DefaultClassifier treats timeouts and transport errors as network failures
func DefaultClassifier(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetworkFailure
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetworkFailure
	}
	return KindPersistenceFailed
}

// userMessage picks the innermost non-empty message, falling back to FallbackMessage
func userMessage(err error) string {
	if err == nil {
		return FallbackMessage
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return FallbackMessage
	}
	return msg
}
