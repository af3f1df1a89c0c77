package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy. Acquisition and transport failures are genuine
// infrastructure errors; format/schema failures mean the oracle produced
// garbage and are downgraded to an unprocessed verdict at the orchestration
// boundary.
var (
	ErrAcquisition  = errors.New("acquisition failed")
	ErrOracle       = errors.New("oracle transport failed")
	ErrOracleFormat = errors.New("no parsable JSON in oracle completion")
	ErrSchema       = errors.New("oracle response violates expected schema")
	ErrInvalidInput = errors.New("invalid input")
)

// NewAppError builds an AppError with a stable code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
