package gplaces

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means no API key was supplied. Checked before
	// any network call is made.
	ErrMissingCredential = errors.New("gplaces: API key missing")

	// ErrInvalidRequest means the place ID is absent or still a config
	// placeholder. Also checked before any network call.
	ErrInvalidRequest = errors.New("gplaces: place ID absent or not configured")

	// ErrMalformed means upstream answered 2xx but the payload did not
	// have the expected shape.
	ErrMalformed = errors.New("gplaces: malformed upstream payload")
)

// UpstreamError is returned for transport failures and non-2xx upstream
// answers. Status is 0 when the request never got a response.
type UpstreamError struct {
	Status int
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gplaces: upstream unavailable: %v", e.Err)
	}
	return fmt.Sprintf("gplaces: upstream returned %d: %s", e.Status, e.Detail)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstreamUnavailable reports whether err is an upstream transport or
// status failure, as opposed to a local precondition failure.
func IsUpstreamUnavailable(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
