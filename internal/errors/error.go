package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryBuild  Category = "build"
	CategoryRoute  Category = "route"
	CategoryRender Category = "render"
	CategoryDeploy Category = "deploy"
	CategoryCLI    Category = "cli"
)

// Location represents a source location reported by the bundler.
type Location struct {
	File   string
	Line   int
	Column int

	// LineText is the offending source line, if known.
	LineText string
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ScaffoldError is a structured error with a code, an explanation and a hint.
type ScaffoldError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of this occurrence.
	Detail string

	// Location is where the error occurred, if it maps to a source file.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ScaffoldError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	} else if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ScaffoldError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a source location to the error.
func (e *ScaffoldError) WithLocation(file string, line, column int, lineText string) *ScaffoldError {
	e.Location = &Location{File: file, Line: line, Column: column, LineText: lineText}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ScaffoldError) WithSuggestion(s string) *ScaffoldError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ScaffoldError) WithDetail(d string) *ScaffoldError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ScaffoldError) Wrap(err error) *ScaffoldError {
	e.Wrapped = err
	return e
}

// New creates a ScaffoldError from a registered error code.
func New(code string) *ScaffoldError {
	template, ok := registry[code]
	if !ok {
		return &ScaffoldError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ScaffoldError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new ScaffoldError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ScaffoldError {
	return &ScaffoldError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a ScaffoldError.
func FromError(err error, code string) *ScaffoldError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*ScaffoldError); ok {
		return se
	}
	return New(code).Wrap(err)
}
