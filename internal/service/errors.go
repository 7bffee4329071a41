package service

import (
	"errors"
	"fmt"

	"go-blog-app/internal/form"
)

// Code classifies service failures so handlers can pick a response.
type Code string

const (
	CodeNotFound    Code = "not_found"
	CodeForbidden   Code = "forbidden"
	CodeInvalid     Code = "invalid"
	CodeConflict    Code = "conflict"
	CodeUnavailable Code = "unavailable"
	CodeInternal    Code = "internal"
	// CodeNoProfile means the action needs the user to create a profile first.
	CodeNoProfile Code = "no_profile"
)

// Error is a classified service error. Message is safe to show to users.
type Error struct {
	Code    Code
	Message string
	// Fields carries per-field problems for CodeInvalid.
	Fields form.Errors
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode returns the classification of err, or CodeInternal when err is unclassified.
func ErrorCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ErrorMessage returns the user-facing message of err.
func ErrorMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// FieldErrors returns the per-field problems carried by err, if any.
func FieldErrors(err error) form.Errors {
	var e *Error
	if errors.As(err, &e) && e.Fields != nil {
		return e.Fields
	}
	return nil
}

func notFound(msg string, err error) error {
	return &Error{Code: CodeNotFound, Message: msg, Err: err}
}

func forbidden(msg string) error {
	return &Error{Code: CodeForbidden, Message: msg}
}

func noProfile(msg string) error {
	return &Error{Code: CodeNoProfile, Message: msg}
}

func invalid(fields form.Errors) error {
	return &Error{Code: CodeInvalid, Message: "Please correct the errors below.", Fields: fields}
}

func invalidField(field, msg string) error {
	fields := form.Errors{}
	fields.Add(field, msg)
	return invalid(fields)
}

func conflict(msg string) error {
	return &Error{Code: CodeConflict, Message: msg}
}

func unavailable(msg string) error {
	return &Error{Code: CodeUnavailable, Message: msg}
}

func internal(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeInternal, Err: err}
}
