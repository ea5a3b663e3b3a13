package frame

import (
	"errors"
	"fmt"
)

// Kind classifies why a poll attempt produced no frame.
type Kind int

const (
	KindTransport Kind = iota // DNS, connection, timeout
	KindStatus                // Non-2xx response
	KindParse                 // Body is not a frame
	KindShape                 // Body parsed but breaks the matrix invariants
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindParse:
		return "parse"
	case KindShape:
		return "shape"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// PollError is the error side of one poll attempt.
type PollError struct {
	Kind   Kind
	Status int // HTTP status for KindStatus
	Err    error
}

func (e *PollError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("poll %s: HTTP %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("poll %s: %v", e.Kind, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind of a poll error. Unclassified errors count as
// transport failures.
func KindOf(err error) Kind {
	var pe *PollError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransport
}
