package remote

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a fetch failure.
type Kind string

const (
	KindRateLimited  Kind = "rate_limited"
	KindUnauthorized Kind = "unauthorized"
	KindTransient    Kind = "transient"
	KindDecode       Kind = "decode"
	KindOther        Kind = "other"
)

// Error is a classified fetch failure.
type Error struct {
	Kind    Kind
	Backend string
	// Status is the HTTP status code, zero for transport failures.
	Status int
	// RetryAfter is the server-provided wait before the next attempt, if any.
	RetryAfter time.Duration
	// Body holds the raw response body for decode failures.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Backend, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err. Unclassified errors are KindOther
// and a nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOther
}

// IsRateLimited reports whether err is a rate-limit failure.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// IsTransient reports whether err is a transient network or server failure.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsDecode reports whether err is a malformed payload.
func IsDecode(err error) bool { return KindOf(err) == KindDecode }

// RetryAfter returns the server-provided wait carried by err, if any.
func RetryAfter(err error) time.Duration {
	var re *Error
	if errors.As(err, &re) {
		return re.RetryAfter
	}
	return 0
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusRequestTimeout, status >= 500:
		return KindTransient
	default:
		return KindOther
	}
}

var errMissingID = errors.New("item without id")
