package ledapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is. Every error returned by Client matches exactly one
// of ErrTransport, ErrUpstream or ErrDecode; 404 responses also match
// ErrNotFound.
var (
	ErrTransport = errors.New("ledapi: transport failure")
	ErrUpstream  = errors.New("ledapi: upstream returned an error status")
	ErrNotFound  = errors.New("ledapi: led not found")
	ErrDecode    = errors.New("ledapi: unexpected response body")
)

// TransportError means the request never produced a response.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledapi: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is a non-2xx answer from the device API. Body holds at most
// maxErrorBody bytes of the response.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ledapi: %s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("ledapi: %s: %d %s: %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ledapi: %s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
