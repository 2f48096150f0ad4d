package domain

import "errors"

// Sentinel errors returned by adapters.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrAddressNotFound = errors.New("address not found")
)

// ErrorKind classifies failures surfaced to callers.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindGeocoding
	KindPersistence
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindGeocoding:
		return "geocoding"
	case KindPersistence:
		return "persistence"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error carries a kind, a user-facing message, and the underlying cause.
// Message is safe to return to clients; Err is not.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError builds an *Error.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}
