// Package apperr defines the error taxonomy surfaced by the quiz engine.
//
// Every error that crosses a package boundary towards a transport is either
// an *Error or is treated as KindStorage. Transports render Tag and Message;
// the wrapped cause is only ever logged.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for handling and transport mapping.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindLLMUnavailable Kind = "llm_unavailable"
	KindParse          Kind = "parse"
	KindStorage        Kind = "storage"
	KindFatal          Kind = "fatal"
)

// Error is a classified error with a stable tag and a user-facing message.
type Error struct {
	Kind Kind

	// Tag is a short stable identifier, e.g. "invalid_num_questions".
	Tag string

	// Message is safe to show to a caller.
	Message string

	// Err is the underlying cause. Never rendered to callers.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports bad input at the boundary.
func Validation(tag, msg string) *Error {
	return &Error{Kind: KindValidation, Tag: tag, Message: msg}
}

// NotFound reports a missing entity.
func NotFound(tag, msg string) *Error {
	return &Error{Kind: KindNotFound, Tag: tag, Message: msg}
}

// Conflict reports a state transition that is not allowed.
func Conflict(tag, msg string) *Error {
	return &Error{Kind: KindConflict, Tag: tag, Message: msg}
}

// Storage wraps a persistence failure. Callers may retry.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Tag: "storage_unavailable", Message: "The request could not be saved. Please try again.", Err: err}
}

// LLMUnavailable wraps an exhausted completer.
func LLMUnavailable(err error) *Error {
	return &Error{Kind: KindLLMUnavailable, Tag: "llm_unavailable", Message: "Question generation is temporarily unavailable.", Err: err}
}

// Fatal reports an invariant breach.
func Fatal(tag, msg string, err error) *Error {
	return &Error{Kind: KindFatal, Tag: tag, Message: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
// Unclassified errors report KindStorage.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// Public returns the tag and message to show a caller.
func Public(err error) (tag, message string) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Tag, ae.Message
	}
	return "internal_error", "Something went wrong. Please try again."
}
