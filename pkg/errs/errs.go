package errs

import "errors"

// Error categories. Domain packages declare their own sentinels with New so that
// callers can match either the precise failure or its category with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("authorization error")
	ErrState         = errors.New("state error")
	ErrNotFound      = errors.New("not found")
	ErrTransfer      = errors.New("transfer failed")
)

type domainError struct {
	kind error
	msg  string
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.kind }

// New returns a sentinel that reports msg and unwraps to kind.
func New(kind error, msg string) error {
	return &domainError{kind: kind, msg: msg}
}

// KindOf returns the category err belongs to, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrValidation, ErrAuthorization, ErrNotFound, ErrState, ErrTransfer} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
