package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FetchErrorKind is a closed enumeration of failure modes at the source
// strategy boundary. Routing and backoff decisions switch on the kind, never
// on error text.
type FetchErrorKind string

const (
	ErrKindRateLimited FetchErrorKind = "rate_limited"
	ErrKindBlocked     FetchErrorKind = "blocked"
	ErrKindTimeout     FetchErrorKind = "timeout"
	ErrKindParseEmpty  FetchErrorKind = "parse_empty"
	ErrKindOther       FetchErrorKind = "other"
)

// FetchError is the error type produced by source strategies.
type FetchError struct {
	Kind      FetchErrorKind `json:"kind"`
	Source    string         `json:"source"`
	Strategy  string         `json:"strategy"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Cause     error          `json:"-"`
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("[%s:%s] %s: %s", e.Source, e.Strategy, e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewFetchError creates a fetch error for a source+strategy pair.
func NewFetchError(kind FetchErrorKind, source, strategy, message string, cause error) *FetchError {
	return &FetchError{
		Kind:      kind,
		Source:    source,
		Strategy:  strategy,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// KindOf extracts the fetch error kind, defaulting to ErrKindOther for
// errors from outside the strategy boundary.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrKindOther
}

// IsTransient reports whether the error should go through backoff and retry.
// Permanent per-strategy failures (blocked, empty parse) make the router move
// to the next strategy immediately.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case ErrKindRateLimited, ErrKindTimeout:
		return true
	default:
		return false
	}
}

// LogError logs the error with structured fields.
func (e *FetchError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_kind": e.Kind,
		"source":     e.Source,
		"strategy":   e.Strategy,
		"message":    e.Message,
		"cause":      e.Cause,
	}).Error("Fetch attempt failed")
}

// Truncate shortens error text for storage in attempt records.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
