package source

import (
	"errors"
	"fmt"
)

// Kind classifies a source failure.
type Kind int

const (
	// KindRateLimited means the local budget was exhausted past the wait ceiling.
	KindRateLimited Kind = iota + 1
	// KindTransient means a network or 5xx failure that may be retried.
	KindTransient
	// KindNotFound means the provider does not know the item.
	KindNotFound
	// KindFatal means an auth or configuration error; retrying cannot help.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	case KindNotFound:
		return "not_found"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error is a typed failure from one provider.
type Error struct {
	Kind   Kind
	Source string // "live" or "history"
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s source %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain, or 0 if the error
// did not originate from a source.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsNotFound reports whether err is a not-found source failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsRateLimited reports whether err is a budget-exhausted source failure.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }

// IsFatal reports whether err is a non-retryable source failure.
func IsFatal(err error) bool { return KindOf(err) == KindFatal }

// IsTransient reports whether err is a retryable source failure.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }
