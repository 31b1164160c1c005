package servicebus

import (
	berr "github.com/next-trace/scg-rideshare/contract/errors"
)

// RemoteError is a failure reported by the handler on the other side of a request.
// errors.Is matches both ErrRemote and the sentinel of the carried code, so a
// Forbidden raised by a remote service is still Forbidden for the caller.
type RemoteError struct {
	Topic   string
	Code    string
	Message string
}

func (e *RemoteError) Error() string { return e.Message }

func (e *RemoteError) Is(target error) bool {
	return target == berr.ErrRemote || target == berr.Code(e.Code)
}

func (e *RemoteError) Unwrap() error { return berr.New(e.Code, e.Message) }
