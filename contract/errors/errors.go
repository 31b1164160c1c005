package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes. Keep stable; they travel inside reply envelopes between services.
const (
	ErrCodeHandlerExists       = "servicebus.handler_exists"
	ErrCodeHandlerNotFound     = "servicebus.handler_not_found"
	ErrCodePublishFailed       = "servicebus.publish_failed"
	ErrCodeSubscribeFailed     = "servicebus.subscribe_failed"
	ErrCodeSerializationFailed = "servicebus.serialization_failed"
	ErrCodeRequestTimeout      = "servicebus.request_timeout"
	ErrCodeRemote              = "servicebus.remote_failure"
	ErrCodeClosed              = "servicebus.closed"

	ErrCodeForbidden  = "rideshare.forbidden"
	ErrCodeBadRequest = "rideshare.bad_request"
	ErrCodeNotFound   = "rideshare.not_found"
	ErrCodeConflict   = "rideshare.conflict"
)

// Code returns an error value that carries only a code string.
// It implements error by returning the code string in Error().
func Code(code string) error { return codedError(code) }

type codedError string

func (e codedError) Error() string { return string(e) }
func (e codedError) Code() string  { return string(e) }

var (
	ErrHandlerExists       = Code(ErrCodeHandlerExists)
	ErrHandlerNotFound     = Code(ErrCodeHandlerNotFound)
	ErrPublishFailed       = Code(ErrCodePublishFailed)
	ErrSubscribeFailed     = Code(ErrCodeSubscribeFailed)
	ErrSerializationFailed = Code(ErrCodeSerializationFailed)
	ErrRequestTimeout      = Code(ErrCodeRequestTimeout)
	ErrRemote              = Code(ErrCodeRemote)
	ErrClosed              = Code(ErrCodeClosed)

	ErrForbidden  = Code(ErrCodeForbidden)
	ErrBadRequest = Code(ErrCodeBadRequest)
	ErrNotFound   = Code(ErrCodeNotFound)
	ErrConflict   = Code(ErrCodeConflict)
)

// kindError is a human-readable message tagged with a code.
// errors.Is matches it against the sentinel of the same code.
type kindError struct {
	code string
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Code() string  { return e.code }

func (e *kindError) Is(target error) bool {
	c, ok := target.(codedError)
	return ok && string(c) == e.code
}

// New returns an error with the given code and message.
func New(code, msg string) error { return &kindError{code: code, msg: msg} }

func Forbidden(msg string) error  { return New(ErrCodeForbidden, msg) }
func BadRequest(msg string) error { return New(ErrCodeBadRequest, msg) }
func NotFound(msg string) error   { return New(ErrCodeNotFound, msg) }
func Conflict(msg string) error   { return New(ErrCodeConflict, msg) }

// BadRequestf formats a BadRequest message.
func BadRequestf(format string, args ...any) error {
	return BadRequest(fmt.Sprintf(format, args...))
}

// CodeOf returns the first code found in err's tree, or "" for uncoded errors.
func CodeOf(err error) string {
	var c interface{ Code() string }
	if stderrors.As(err, &c) {
		return c.Code()
	}

	return ""
}
