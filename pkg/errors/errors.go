// Package errors provides a rich error type with context and diagnostic
// metadata for rulekeybuilder. These errors carry suggestions, a context
// map, and a lightweight stack trace to improve diagnostics.
package errors

import (
	"runtime"
	"strings"
)

// ErrorCode categorizes errors for handling.
type ErrorCode string

const (
	// Rule-key core errors (spec §7).
	ErrAmbiguousPath        ErrorCode = "AMBIGUOUS_PATH"
	ErrMissingFileHash      ErrorCode = "MISSING_FILE_HASH"
	ErrUnsupportedValue     ErrorCode = "UNSUPPORTED_VALUE"
	ErrUnorderedCollection  ErrorCode = "UNORDERED_COLLECTION"
	ErrInvalidArchiveMember ErrorCode = "INVALID_ARCHIVE_MEMBER_PATHS"
	ErrCyclicRuleGraph      ErrorCode = "CYCLIC_RULE_GRAPH"

	// Rule document / CLI errors.
	ErrInvalidRuleDocument ErrorCode = "INVALID_RULE_DOCUMENT"
	ErrCyclicDocument      ErrorCode = "CYCLIC_DOCUMENT"
	ErrUnknownRuleRef      ErrorCode = "UNKNOWN_RULE_REF"

	// Configuration / filesystem errors.
	ErrConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrFileNotFound     ErrorCode = "FILE_NOT_FOUND"
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"

	// Unknown.
	ErrUnknown ErrorCode = "UNKNOWN"
)

// StackFrame represents a single stack frame.
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// BuildError is the module's base error type with rich context.
//
// Per spec.md §7, rule-key errors are never locally recovered: they abort
// the current rule-key computation. BuildError carries no recovery
// machinery for that reason; it exists to give a human, or the CLI's
// ErrorHandler, enough context to explain what went wrong.
type BuildError struct {
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      error             `json:"-"`
	Context    map[string]string `json:"context,omitempty"`
	Stack      []StackFrame      `json:"stack,omitempty"`
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}
	if e.Cause != nil {
		sb.WriteString("\nCaused by: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *BuildError) Unwrap() error { return e.Cause }

// WithSuggestion adds a suggestion for fixing the error.
func (e *BuildError) WithSuggestion(suggestion string) *BuildError {
	e.Suggestion = suggestion
	return e
}

// WithContext adds contextual information.
func (e *BuildError) WithContext(key, value string) *BuildError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithCause wraps another error.
func (e *BuildError) WithCause(cause error) *BuildError {
	e.Cause = cause
	return e
}

// WithDetails adds detailed information.
func (e *BuildError) WithDetails(details string) *BuildError {
	e.Details = details
	return e
}

// New creates a new BuildError.
func New(code ErrorCode, message string) *BuildError {
	err := &BuildError{
		Code:    code,
		Message: message,
		Context: make(map[string]string),
	}
	err.captureStack()
	err.Suggestion = getDefaultSuggestion(code)
	return err
}

// Wrap wraps a standard error with BuildError.
func Wrap(err error, code ErrorCode, message string) *BuildError {
	if err == nil {
		return nil
	}
	if buildErr, ok := err.(*BuildError); ok {
		if message != "" {
			buildErr.Message = message + ": " + buildErr.Message
		}
		return buildErr
	}
	return New(code, message).WithCause(err)
}

// captureStack captures the current stack trace.
func (e *BuildError) captureStack() {
	const maxFrames = 10
	pc := make([]uintptr, maxFrames)
	n := runtime.Callers(3, pc) // Skip runtime.Callers, captureStack, New/Wrap
	frames := runtime.CallersFrames(pc[:n])
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") || strings.Contains(frame.File, "testing/") {
			if !more {
				break
			}
			continue
		}
		e.Stack = append(e.Stack, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
}

// getDefaultSuggestion provides default fix suggestions.
func getDefaultSuggestion(code ErrorCode) string {
	suggestions := map[ErrorCode]string{
		ErrAmbiguousPath:        "wrap the path in a SourcePath before passing it to Set",
		ErrMissingFileHash:      "make sure the File-Hash Oracle has a digest cached for this path before hashing it",
		ErrUnorderedCollection:  "sort the collection, or set strict_collections: false to allow unordered input",
		ErrInvalidArchiveMember: "archive-member source paths need an absolute archive path and a relative member path",
		ErrCyclicRuleGraph:      "break the cycle between these rules; rule graphs must be a DAG",
		ErrInvalidRuleDocument:  "check the rule document's JSON shape against internal/ruledoc",
		ErrCyclicDocument:       "the rule document references itself through a chain of rule values",
	}
	if s, ok := suggestions[code]; ok {
		return s
	}
	return "run 'rkb inspect --debug <rule.json>' to see the structured event trace"
}
