package llm

import (
	"context"
	"errors"

	"askgemini/internal/prompt"
)

// Response is the text answer of a successful model call.
type Response struct {
	// Text is the model answer with surrounding whitespace removed.
	Text string
	// Model echoes the model identifier reported by the service.
	Model string
	// FinishReason is the service-reported reason the generation stopped.
	FinishReason string
}

// Client sends a single prompt to a generative model.
type Client interface {
	Generate(ctx context.Context, p prompt.Prompt) (Response, error)
}

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable not set")

// ConfigError is returned before any network call when the client cannot
// be used as configured.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// ServiceError carries a failure reported by the remote call itself. The
// message is the collaborator's own.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string { return e.Err.Error() }
func (e *ServiceError) Unwrap() error { return e.Err }

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

func IsServiceError(err error) bool {
	var target *ServiceError
	return errors.As(err, &target)
}
