package shared

import "errors"

// Kind classifies ledger errors for callers that need to decide between
// surfacing, rejecting and retrying.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation marks malformed input caught before any write.
	KindValidation
	// KindState marks an operation that is not legal in the entity's state.
	KindState
	// KindIntegrity marks a would-be violation of a ledger invariant.
	KindIntegrity
	// KindNotFound marks a missing entity or an organization mismatch.
	KindNotFound
	// KindConflict marks a lock or version conflict; safe to retry.
	KindConflict
)

// Error is a classified error. Sentinel errors across the ledger packages
// are built from the constructors below so errors.Is keeps working.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// Validation builds a validation-kind error.
func Validation(msg string) error { return &Error{kind: KindValidation, msg: msg} }

// State builds a state-kind error.
func State(msg string) error { return &Error{kind: KindState, msg: msg} }

// Integrity builds an integrity-kind error.
func Integrity(msg string) error { return &Error{kind: KindIntegrity, msg: msg} }

// NotFound builds a not-found-kind error.
func NotFound(msg string) error { return &Error{kind: KindNotFound, msg: msg} }

// Conflict builds a conflict-kind error.
func Conflict(msg string) error { return &Error{kind: KindConflict, msg: msg} }

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf walks the error chain and returns the first classification found.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.kind
	}
	return KindUnknown
}

// Retryable reports whether the caller may retry the operation.
func Retryable(err error) bool {
	return KindOf(err) == KindConflict
}
