package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicate         = errors.New("duplicate operation")
	ErrNoImages          = errors.New("no images generated")
	ErrOrphaned          = errors.New("job orphaned")
)

// ValidationError reports missing or malformed input. Jobs are never created when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamCategory classifies generative backend failures for client messaging.
type UpstreamCategory string

const (
	UpstreamAuth          UpstreamCategory = "auth"
	UpstreamQuota         UpstreamCategory = "quota"
	UpstreamContentPolicy UpstreamCategory = "content_policy"
	UpstreamNetwork       UpstreamCategory = "network"
	UpstreamMalformed     UpstreamCategory = "malformed"
	UpstreamUnknown       UpstreamCategory = "unknown"
)

// Hint returns a short human readable description of the category.
func (c UpstreamCategory) Hint() string {
	switch c {
	case UpstreamAuth:
		return "authentication failed"
	case UpstreamQuota:
		return "quota or rate limit exceeded"
	case UpstreamContentPolicy:
		return "rejected by content policy"
	case UpstreamNetwork:
		return "network error or timeout"
	case UpstreamMalformed:
		return "malformed model response"
	default:
		return "model error"
	}
}

// UpstreamError wraps a failure returned by a generative backend.
type UpstreamError struct {
	Provider string
	Category UpstreamCategory
	Err      error
}

func (e *UpstreamError) Error() string {
	msg := e.Category.Hint()
	if e.Provider != "" {
		msg = e.Provider + " " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError builds an UpstreamError.
func NewUpstreamError(provider string, category UpstreamCategory, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Category: category, Err: err}
}

// UpstreamCategoryOf extracts the category of an upstream failure, or UpstreamUnknown.
func UpstreamCategoryOf(err error) UpstreamCategory {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Category
	}
	return UpstreamUnknown
}

// PersistenceError reports a store write failure after a successful generation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
