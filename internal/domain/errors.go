package domain

import "errors"

// Kind classifies the failures that can interrupt an attendance action.
type Kind int

const (
	KindUnknown Kind = iota
	// KindSensorUnsupported: the environment has no location capability.
	KindSensorUnsupported
	// KindSensorPermissionDenied: location access was declined.
	KindSensorPermissionDenied
	// KindSensorTimeout: no position fix within the bound.
	KindSensorTimeout
	// KindSensorOther: any remaining sensor failure.
	KindSensorOther
	// KindRemoteRejected: the authority responded but declined the request.
	KindRemoteRejected
	// KindRemoteUnreachable: transport-level failure talking to the authority.
	KindRemoteUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindSensorUnsupported:
		return "sensor_unsupported"
	case KindSensorPermissionDenied:
		return "sensor_permission_denied"
	case KindSensorTimeout:
		return "sensor_timeout"
	case KindSensorOther:
		return "sensor_error"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindRemoteUnreachable:
		return "remote_unreachable"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Message is user-facing; for
// KindRemoteRejected it carries the authority's message when available.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error.
func E(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from err, or KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// MessageOf extracts the user-facing message from err, falling back to the
// raw error text.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
