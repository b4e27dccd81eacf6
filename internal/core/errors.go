package core

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures that can leave the pipeline.
type ErrorCode string

const (
	ErrCodeConfiguration ErrorCode = "CONFIGURATION" // fatal, before any scraping
	ErrCodeSource        ErrorCode = "SOURCE"        // recorded per source, non-fatal
	ErrCodeService       ErrorCode = "SERVICE"       // absorbed by tier fallback
	ErrCodeGeneration    ErrorCode = "GENERATION"    // site rendering
	ErrCodeValidation    ErrorCode = "VALIDATION"    // invariant broken, a bug
)

// ErrNoProjects is returned when every source came back empty.
var ErrNoProjects = errors.New("no projects found")

// PipelineError is a structured error with a code and the operation that failed.
type PipelineError struct {
	Code    ErrorCode
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s %s: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the wrapped cause.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates an error for invalid settings.
func NewConfigurationError(msg string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeConfiguration, Op: "config", Message: msg, Err: err}
}

// NewSourceError creates an error for a scraper that could not run.
func NewSourceError(source Source, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeSource, Op: string(source), Err: err}
}

// NewServiceError creates an error for a failed call to the language model.
func NewServiceError(op string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeService, Op: op, Err: err}
}

// NewGenerationError creates an error for site rendering failures.
func NewGenerationError(msg string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeGeneration, Op: "generate", Message: msg, Err: err}
}

// NewValidationError creates an error for a project that breaks an invariant.
func NewValidationError(projectID, msg string) *PipelineError {
	return &PipelineError{Code: ErrCodeValidation, Op: projectID, Message: msg}
}

// Is checks if err, or anything it wraps, is a PipelineError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}
