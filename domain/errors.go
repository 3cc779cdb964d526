package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError rejects a request before any external call is made.
// Its message is shown to the client verbatim.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError with the given client-facing message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

// ConversionError means the submitted audio could not be decoded or re-encoded.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string { return fmt.Sprintf("audio conversion failed: %v", e.Err) }
func (e *ConversionError) Unwrap() error { return e.Err }

// TranscriptionError means the speech-to-text service failed. Terminal for the request.
type TranscriptionError struct {
	Provider string
	Err      error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription via %s failed: %v", e.Provider, e.Err)
}
func (e *TranscriptionError) Unwrap() error { return e.Err }

// PersonaGenerationError means the coaching reply could not be generated. Terminal for the request.
type PersonaGenerationError struct {
	Err error
}

func (e *PersonaGenerationError) Error() string {
	return fmt.Sprintf("persona generation failed: %v", e.Err)
}
func (e *PersonaGenerationError) Unwrap() error { return e.Err }

// IntentAgentFailure is logged when the intent stage fails; the pipeline continues
// with the unprocessed transcription.
type IntentAgentFailure struct {
	Err error
}

func (e *IntentAgentFailure) Error() string { return fmt.Sprintf("intent agent failed: %v", e.Err) }
func (e *IntentAgentFailure) Unwrap() error { return e.Err }

// SynthesisFailure is logged when speech synthesis fails; the reply is returned without audio.
type SynthesisFailure struct {
	Engine string
	Err    error
}

func (e *SynthesisFailure) Error() string {
	return fmt.Sprintf("speech synthesis via %s failed: %v", e.Engine, e.Err)
}
func (e *SynthesisFailure) Unwrap() error { return e.Err }

// InternalErrorMessage is the body text for every failure that is not a
// validation error.
const InternalErrorMessage = "Internal server error"

// ClientError maps err to the status code and message a client sees.
// Validation errors surface their message with 400; anything else is a 500
// with a generic message.
func ClientError(err error) (int, string) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message
	}
	return http.StatusInternalServerError, InternalErrorMessage
}
