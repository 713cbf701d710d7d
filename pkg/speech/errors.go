package speech

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when an API key is required but missing.
	ErrNoAPIKey = errors.New("speech: API key required")

	// ErrEmptyAudio is returned when there is no audio to transcribe.
	ErrEmptyAudio = errors.New("speech: empty audio payload")

	// ErrEmptyText is returned when there is no text to synthesize.
	ErrEmptyText = errors.New("speech: empty text")
)

// GatewayError wraps an error with gateway context.
type GatewayError struct {
	Gateway string
	Err     error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("speech [%s]: %v", e.Gateway, e.Err)
}

// Unwrap returns the underlying error.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with gateway context.
func WrapError(gateway string, err error) error {
	if err == nil {
		return nil
	}
	return &GatewayError{Gateway: gateway, Err: err}
}
