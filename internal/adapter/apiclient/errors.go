package apiclient

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout       = errors.New("request timeout")
	ErrNetwork       = errors.New("network error")
	ErrStatus        = errors.New("unexpected status")
	ErrNotJSON       = errors.New("expected JSON response")
	ErrEmptyBody     = errors.New("empty response body")
	ErrMalformedJSON = errors.New("invalid JSON response")
)

// An Error describes a failed API call.
//
// Status is zero when no response was received.
type Error struct {
	Status   int
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("api %s: status %d: %v", e.Endpoint, e.Status, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// transient reports whether err is a transport-level failure worth retrying.
func transient(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrStatus)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrStatus):
		return "status"
	default:
		return "error"
	}
}
