package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrMalformedPayload   = errors.New("malformed payload")
	ErrInFlight           = errors.New("action already in progress")
	ErrRunFinished        = errors.New("run already finished")
	ErrRunNotReady        = errors.New("run payload not loaded")
	ErrMissingHistoryID   = errors.New("history id missing from start response")
	ErrInvalidHistoryID   = errors.New("invalid history id")
	ErrPayloadUnavailable = errors.New("run payload not found")
)

// Kind classifies a failed API call for display purposes.
type Kind int

const (
	KindGeneric Kind = iota
	KindTransport
	KindUnauthenticated
	KindValidation
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	default:
		return "generic"
	}
}

// APIError is the failure value of a remote operation. Message is safe to
// show to the user; Status and Body are kept for diagnostics.
type APIError struct {
	Op      string
	Kind    Kind
	Status  string
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Kind == KindUnauthenticated
}

// MessageOf returns the user-facing message of err, unwrapping APIError.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// StatusOf returns the HTTP status recorded on err, or "error" when err did
// not come from a response.
func StatusOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status != "" {
		return apiErr.Status
	}
	return "error"
}

// Step relabels a failed API call as "<step> failed (<status>)". The kind is
// kept so errors.Is(err, ErrUnauthenticated) still holds. Errors that did not
// come from a response are wrapped instead.
func Step(step string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s failed: %w", step, err)
	}
	return &APIError{
		Kind:    apiErr.Kind,
		Status:  apiErr.Status,
		Message: fmt.Sprintf("%s failed (%s)", step, StatusOf(apiErr)),
		Body:    apiErr.Body,
	}
}
