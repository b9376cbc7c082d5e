package provider

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Failure kinds. TransportError and FetchError unwrap to one of these, so callers
// can branch with errors.Is.
var (
	ErrUnreachable       = errors.New("provider unreachable")
	ErrTimeout           = errors.New("provider timeout")
	ErrMalformedReply    = errors.New("malformed reply framing")
	ErrCanceled          = errors.New("request canceled")
	ErrMalformedResponse = errors.New("malformed response")
	ErrUnsupportedQuery  = errors.New("unsupported query")
	ErrUnknownSwitch     = errors.New("unknown switch")
	ErrMalformedRequest  = errors.New("malformed request")
	ErrProviderInternal  = errors.New("provider internal error")
)

// TransportError is a connection or framing failure on the request channel
type TransportError struct {
	Op       string
	Endpoint string
	Kind     error
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Endpoint, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return nonNil(e.Kind, e.Err)
}

// FetchError is a failure of a whole fetch: transport, decoding or a provider error reply
type FetchError struct {
	Query string
	Kind  error
	Err   error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %q: %v", e.Query, e.Kind)
	}
	return fmt.Sprintf("fetch %q: %v: %v", e.Query, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return nonNil(e.Kind, e.Err)
}

func nonNil(errs ...error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// contextKind maps a context failure to its transport kind, or ErrUnreachable otherwise
func contextKind(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return ErrCanceled
	default:
		return ErrUnreachable
	}
}
