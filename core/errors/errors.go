// Package errors provides the classified error type shared by every expressgen stage.
//
// Overview:
//   - Responsibility: Classify generation failures (validation, template, write) and carry context
//   - Key Types: Code type for error classification, E struct for structured errors
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Compatible with standard library error wrapping
//   - Performance Notes: Errors are built once per failed run; no pooling
//
// Usage:
//
//	err := errors.New(errors.CodeValidation, "unknown service \"kafka\"")
//	wrapped := errors.Wrap(errors.CodeWrite, "projectfs.Commit", originalErr)
//	code := errors.CodeOf(err)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents an error classification code.
type Code string

// Generation error codes. A run fails with exactly one of these.
const (
	// CodeValidation marks bad input: malformed JSON, unknown field, unknown service or framework.
	CodeValidation Code = "VALIDATION"
	// CodeTemplate marks a rendering failure or a missing/malformed API description.
	CodeTemplate Code = "TEMPLATE"
	// CodeWrite marks a filesystem failure while committing the generated tree.
	CodeWrite Code = "WRITE"
	// CodeNotFound marks a catalog or template lookup miss.
	CodeNotFound Code = "NOT_FOUND"
	// CodeCanceled marks a run stopped through its context.
	CodeCanceled Code = "CANCELED"
	// CodeInternal marks a programming error.
	CodeInternal Code = "INTERNAL"
)

// Detail names the input field or output file an error is about.
type Detail struct {
	Field string `json:"field,omitempty"`
	Path  string `json:"path,omitempty"`
}

// String renders the detail as field=... path=....
func (d Detail) String() string {
	var parts []string
	if d.Field != "" {
		parts = append(parts, "field="+d.Field)
	}
	if d.Path != "" {
		parts = append(parts, "path="+d.Path)
	}
	return strings.Join(parts, " ")
}

// E represents a structured error with code, operation, message, and details.
type E struct {
	Code    Code   // Error classification code
	Op      string // Operation that failed
	Err     error  // Underlying error (may be nil)
	Msg     string // Human-readable message
	Details []any  // Offending fields or files, usually Detail values
}

// Error implements the error interface.
func (e *E) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping.
func (e *E) Unwrap() error {
	return e.Err
}

// New creates a new structured error with the given code and message.
func New(code Code, msg string) error {
	return &E{
		Code: code,
		Msg:  msg,
	}
}

// Newf creates a new structured error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &E{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new structured error wrapping an existing error.
// If err already carries a code it is kept as the cause, and the outer code wins.
func Wrap(code Code, op string, err error) error {
	return &E{
		Code: code,
		Op:   op,
		Err:  err,
	}
}

// Wrapf creates a new structured error wrapping an existing error with formatted message.
func Wrapf(code Code, op string, err error, format string, args ...any) error {
	return &E{
		Code: code,
		Op:   op,
		Err:  err,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the outermost error code from an error.
// Returns empty string if the error doesn't have a code.
func CodeOf(err error) Code {
	var e *E
	if err != nil && errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// DetailsOf collects the Detail values attached anywhere in the error chain.
func DetailsOf(err error) []Detail {
	var out []Detail
	for err != nil {
		if e, ok := err.(*E); ok {
			for _, d := range e.Details {
				if detail, ok := d.(Detail); ok {
					out = append(out, detail)
				}
			}
		}
		err = errors.Unwrap(err)
	}
	return out
}

// As is a convenience wrapper over the standard library's errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a convenience wrapper over the standard library's errors.Is.
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// Builder provides a fluent interface for constructing errors.
type Builder struct {
	code    Code
	op      string
	err     error
	msg     string
	details []any
}

// Build constructs a new error with the builder's configuration.
func Build(code Code) *Builder {
	return &Builder{code: code}
}

// WithOp sets the operation that failed.
func (b *Builder) WithOp(op string) *Builder {
	b.op = op
	return b
}

// WithErr wraps an underlying error.
func (b *Builder) WithErr(err error) *Builder {
	b.err = err
	return b
}

// WithMsg sets a human-readable message.
func (b *Builder) WithMsg(msg string) *Builder {
	b.msg = msg
	return b
}

// WithMsgf sets a formatted human-readable message.
func (b *Builder) WithMsgf(format string, args ...any) *Builder {
	b.msg = fmt.Sprintf(format, args...)
	return b
}

// WithField records the offending input field.
func (b *Builder) WithField(field string) *Builder {
	b.details = append(b.details, Detail{Field: field})
	return b
}

// WithPath records the offending file.
func (b *Builder) WithPath(path string) *Builder {
	b.details = append(b.details, Detail{Path: path})
	return b
}

// WithDetails adds structured details to the error.
func (b *Builder) WithDetails(details ...any) *Builder {
	b.details = append(b.details, details...)
	return b
}

// Err builds and returns the error.
func (b *Builder) Err() error {
	return &E{
		Code:    b.code,
		Op:      b.op,
		Err:     b.err,
		Msg:     b.msg,
		Details: b.details,
	}
}
