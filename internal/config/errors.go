package config

import "fmt"

// ErrorType represents the category of a configuration error
type ErrorType int

const (
	// ErrTypePath indicates the config location could not be determined
	ErrTypePath ErrorType = iota
	// ErrTypeRead indicates the file could not be read
	ErrTypeRead
	// ErrTypeParse indicates malformed YAML
	ErrTypeParse
	// ErrTypeVersion indicates an unsupported config version
	ErrTypeVersion
	// ErrTypeValidation indicates a value the dashboard cannot use
	ErrTypeValidation
	// ErrTypeWrite indicates the file could not be saved
	ErrTypeWrite
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypePath:
		return "Path Error"
	case ErrTypeRead:
		return "Read Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeVersion:
		return "Version Error"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeWrite:
		return "Write Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is returned by loading, validating and saving the registry
type Error struct {
	Type    ErrorType
	Message string
	Path    string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}
