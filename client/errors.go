package client

import (
	"errors"
	"fmt"
)

// Sentinel conditions callers branch on with errors.Is. They stand for
// the handful of outcomes a UI treats differently: prompt a login,
// back off, retry, or show the server's message.
var (
	ErrAuthRequired = errors.New("authentication required")
	ErrRateLimited  = errors.New("rate limited")
	ErrTimeout      = errors.New("request timed out")
	ErrUnreachable  = errors.New("server unreachable")
	ErrRejected     = errors.New("request rejected")
	ErrValidation   = errors.New("invalid input")
)

type apiError struct {
	kind    error
	message string
}

func (e *apiError) Error() string {
	if e.message == "" {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.kind.Error(), e.message)
}

func (e *apiError) Is(target error) bool { return target == e.kind }

func rejected(kind error, message string) error {
	return &apiError{kind: kind, message: message}
}
