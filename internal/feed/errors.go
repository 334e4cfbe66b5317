package feed

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when a coordinator has not produced a model yet.
var ErrNoData = errors.New("no data for feed")

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindTransport    ErrorKind = "transport"
	KindStatus       ErrorKind = "status"
	KindMalformed    ErrorKind = "malformed"
	KindNoCredential ErrorKind = "no-credential"
	KindInvalidInput ErrorKind = "invalid-input"
)

// FetchError is the typed failure surfaced by providers that propagate
// errors (the weather feed).
type FetchError struct {
	Feed       string
	Kind       ErrorKind
	StatusCode int // set for KindStatus
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Feed, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s %d", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
