package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/platform/logging"
)

const genericFailureMessage = "operation failed"

type envelope[T any] struct {
	Data *T `json:"data"`
}

// Decode parses the body into T. A parse failure is always reported as
// ErrMalformedPayload, never as a zero value.
func Decode[T any](r Result) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(r.Body), &out); err != nil {
		return out, fmt.Errorf("%w: %v", apperrors.ErrMalformedPayload, err)
	}
	return out, nil
}

// DecodeData parses a `{"data": ...}` envelope; a missing data key is malformed.
func DecodeData[T any](r Result) (T, error) {
	var zero T
	env, err := Decode[envelope[T]](r)
	if err != nil {
		return zero, err
	}
	if env.Data == nil {
		return zero, fmt.Errorf("%w: missing data", apperrors.ErrMalformedPayload)
	}
	return *env.Data, nil
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Message returns the `message` field of a JSON error body, or the body itself.
func Message(body string) string {
	parsed := errorBody{}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil || parsed.Message == "" {
		return body
	}
	return parsed.Message
}

// DisplayMessage flattens field errors into one newline-joined string,
// falling back to `message` and then to the raw body.
func DisplayMessage(body string) string {
	parsed := errorBody{}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return body
	}
	var items []string
	for _, field := range sortedKeys(parsed.Errors) {
		for _, msg := range parsed.Errors[field] {
			if strings.TrimSpace(msg) != "" {
				items = append(items, msg)
			}
		}
	}
	if len(items) > 0 {
		return strings.Join(items, "\n")
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	return body
}

// Failure classifies a non-success result. Generic failures are logged with
// their raw status and body and surfaced with a fixed message.
func (r Result) Failure(ctx context.Context, op string) *apperrors.APIError {
	e := &apperrors.APIError{Op: op, Status: r.Status.String(), Body: r.Body}
	switch {
	case r.Status == StatusTransportError:
		e.Kind = apperrors.KindTransport
		e.Message = r.Body
	case r.Is(401):
		e.Kind = apperrors.KindUnauthenticated
		e.Message = "unauthenticated"
	case r.Is(422):
		e.Kind = apperrors.KindValidation
		e.Message = DisplayMessage(r.Body)
	case r.Is(403):
		e.Kind = apperrors.KindForbidden
		e.Message = DisplayMessage(r.Body)
	default:
		e.Kind = apperrors.KindGeneric
		e.Message = genericFailureMessage
		logging.ReportFailure(ctx, op, e.Status, r.Body)
	}
	return e
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
