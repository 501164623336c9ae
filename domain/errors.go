package domain

import (
	"errors"
	"fmt"
)

// Error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
	ErrCodeParseError         = "PARSE_ERROR"
	ErrCodeConfigError        = "CONFIG_ERROR"
	ErrCodeConfigEntryMissing = "CONFIG_ENTRY_MISSING"
	ErrCodeOutputError        = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
)

// Sentinels for errors.Is checks against DomainError values
var (
	// ErrConfiguration matches every configuration error, including ErrConfigEntryMissing
	ErrConfiguration = errors.New("configuration error")

	// ErrConfigEntryMissing matches errors raised when no rule set fits a run
	ErrConfigEntryMissing = errors.New("config entry missing")

	// ErrNotFound matches missing input files
	ErrNotFound = errors.New("not found")
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error belongs to the category of target.
// A CONFIG_ENTRY_MISSING error is also a configuration error.
func (e DomainError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Code == ErrCodeConfigError || e.Code == ErrCodeConfigEntryMissing
	case ErrConfigEntryMissing:
		return e.Code == ErrCodeConfigEntryMissing
	case ErrNotFound:
		return e.Code == ErrCodeFileNotFound
	}
	return false
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), cause)
}

// NewParseError creates a parse error for an input file
func NewParseError(path string, cause error) error {
	return NewDomainError(ErrCodeParseError, fmt.Sprintf("failed to parse %s", path), cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewCheckerConfigError creates a configuration error naming the checker and key at fault
func NewCheckerConfigError(checker, key, reason string) error {
	return NewConfigError(fmt.Sprintf("checker %q: %s: %s", checker, key, reason), nil)
}

// NewConfigEntryMissingError is raised when no configured read-length bucket fits the run
func NewConfigEntryMissingError(instrument string, readLength int) error {
	return NewDomainError(ErrCodeConfigEntryMissing,
		fmt.Sprintf("no config entry matching read length %d found for instrument %s", readLength, instrument), nil)
}

// NewOutputError creates an output error
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an unsupported format error
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewValidationError creates a validation error
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}
