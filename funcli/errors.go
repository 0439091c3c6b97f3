package funcli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents error categories for compile and invocation failures.
// Compile-time categories abort configuration construction entirely;
// invocation-time categories are returned from Run and are safe to catch.
type ErrorType string

const (
	// Compile-time categories
	ErrorTypeMissingType       ErrorType = "missing_type"
	ErrorTypeUnsupportedType   ErrorType = "unsupported_type"
	ErrorTypeUnsupportedAction ErrorType = "unsupported_action"
	ErrorTypeMissingCapability ErrorType = "missing_capability"
	ErrorTypeBadSignature      ErrorType = "bad_signature"
	ErrorTypeBadCallable       ErrorType = "bad_callable"

	// Invocation-time categories
	ErrorTypeInvalidValue    ErrorType = "invalid_value"
	ErrorTypeUnknownFlag     ErrorType = "unknown_flag"
	ErrorTypeMissingValue    ErrorType = "missing_value"
	ErrorTypeMissingRequired ErrorType = "missing_required"
	ErrorTypeTooManyArgs     ErrorType = "too_many_args"
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
)

// ErrHelpShown is returned by Run when help output was requested and printed.
var ErrHelpShown = errors.New("help shown")

// CompileError reports a failure while turning a signature into a command.
// No partial configuration survives a CompileError.
type CompileError struct {
	Type    ErrorType
	Param   string // parameter name when the failure is tied to one
	Message string
}

func (e *CompileError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("compile %q: %s", e.Param, e.Message)
	}
	return "compile: " + e.Message
}

func newCompileError(typ ErrorType, param, format string, args ...any) *CompileError {
	return &CompileError{
		Type:    typ,
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

// ParseError reports a per-invocation failure: a token that does not convert,
// an unknown flag, or a missing/extra positional. It names the offending
// parameter so embedding callers can recover.
type ParseError struct {
	Type        ErrorType
	Param       string
	Token       string
	Message     string
	Suggestions []string
	Cause       error
}

func (e *ParseError) Error() string {
	if len(e.Suggestions) == 0 {
		return e.Message
	}
	var b strings.Builder
	b.WriteString(e.Message)
	for _, s := range e.Suggestions {
		b.WriteString("\n  ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// WithSuggestion appends a suggestion line to the error
func (e *ParseError) WithSuggestion(suggestion string) *ParseError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

func newParseError(typ ErrorType, param, token, format string, args ...any) *ParseError {
	return &ParseError{
		Type:    typ,
		Param:   param,
		Token:   token,
		Message: fmt.Sprintf(format, args...),
	}
}

// DispatchError reports a failure while reconstructing the call: bound state
// naming an unknown parameter, a parameter supplied both parsed and bound, or
// a missing value for an ignored parameter.
type DispatchError struct {
	Param       string
	Message     string
	Suggestions []string
}

func (e *DispatchError) Error() string {
	if len(e.Suggestions) == 0 {
		return e.Message
	}
	var b strings.Builder
	b.WriteString(e.Message)
	for _, s := range e.Suggestions {
		b.WriteString("\n  ")
		b.WriteString(s)
	}
	return b.String()
}

func newDispatchError(param, format string, args ...any) *DispatchError {
	return &DispatchError{
		Param:   param,
		Message: fmt.Sprintf(format, args...),
	}
}

// ExitCode maps an error returned by Run to a conventional process exit code:
// 0 for success or help, 2 for invocation errors (the usual usage-error code),
// 1 for everything else. Intended for main() wrappers that want exit codes
// without the library ever terminating the process itself.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrHelpShown) {
		return 0
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return 2
	}
	return 1
}
