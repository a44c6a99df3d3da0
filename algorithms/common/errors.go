package common

import "errors"

// ErrorKind classifies analysis failures
type ErrorKind string

const (
	// KindIO marks an input that is missing or unreadable
	KindIO ErrorKind = "IO_ERROR"

	// KindFormat marks a byte stream that does not decode into a valid signal
	KindFormat ErrorKind = "FORMAT_ERROR"

	// KindDegenerateSignal marks a signal a descriptor cannot be computed for (e.g. silence)
	KindDegenerateSignal ErrorKind = "DEGENERATE_SIGNAL"

	// KindConfiguration marks an invalid parameter combination
	KindConfiguration ErrorKind = "CONFIGURATION_ERROR"
)

// AnalysisError represents a classified failure from loading or analysis
type AnalysisError struct {
	Kind    ErrorKind `json:"kind"`
	Op      string    `json:"op,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *AnalysisError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AnalysisError of the same kind, so the
// sentinels below work with errors.Is
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Sentinels for errors.Is
var (
	ErrIO               = &AnalysisError{Kind: KindIO}
	ErrFormat           = &AnalysisError{Kind: KindFormat}
	ErrDegenerateSignal = &AnalysisError{Kind: KindDegenerateSignal}
	ErrConfiguration    = &AnalysisError{Kind: KindConfiguration}
)

// NewIOError creates an IO error
func NewIOError(op, message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: KindIO, Op: op, Message: message, Cause: cause}
}

// NewFormatError creates a format error
func NewFormatError(op, message string) *AnalysisError {
	return &AnalysisError{Kind: KindFormat, Op: op, Message: message}
}

// NewDegenerateSignalError creates a degenerate signal error
func NewDegenerateSignalError(op, message string) *AnalysisError {
	return &AnalysisError{Kind: KindDegenerateSignal, Op: op, Message: message}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(op, message string) *AnalysisError {
	return &AnalysisError{Kind: KindConfiguration, Op: op, Message: message}
}

// KindOf returns the kind of the first AnalysisError in err's chain, or "" if none
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}
