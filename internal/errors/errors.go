// Package errors provides structured error types for the Telegram MCP adapter.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoArguments     = errors.New("No arguments provided")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrInvalidResponse = errors.New("invalid JSON response")
	ErrInvalidInput    = errors.New("invalid input")
)

// UnknownToolError reports a tool name outside the registry.
// Its message is surfaced verbatim to the agent host.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "Unknown Telegram tool: " + e.Name
}

// Is makes errors.Is(err, ErrUnknownTool) match.
func (e *UnknownToolError) Is(target error) bool { return target == ErrUnknownTool }

// APIError represents a failed call to an external API.
type APIError struct {
	Service string
	Method  string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (%s): %s: %v", e.Service, e.Method, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (%s): %s", e.Service, e.Method, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error wrapping err.
func NewAPIError(service, method, message string, err error) *APIError {
	return &APIError{Service: service, Method: method, Message: message, Err: err}
}

// Kind classifies err into a short label suitable for metrics.
func Kind(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoArguments):
		return "no_arguments"
	case errors.Is(err, ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrInvalidResponse):
		return "invalid_response"
	case errors.As(err, &apiErr):
		return "api_error"
	default:
		return "error"
	}
}
