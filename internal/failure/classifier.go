package failure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const (
	MessageUnexpected = "An unexpected error occurred."
	MessageTimeout    = "The object storage did not respond in time."
)

var defaultStatusCodes = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindNotFound:   http.StatusNotFound,
	KindUpstream:   http.StatusInternalServerError,
	KindUnexpected: http.StatusInternalServerError,
}

type Classification struct {
	Kind       Kind
	StatusCode int
	Message    string
}

// Classifier maps arbitrary errors onto a Classification. It never
// fails: anything it doesn't recognize becomes KindUnexpected with
// a generic message so that internal details don't leak out.
type Classifier struct {
	statusCodes map[Kind]int
}

func NewClassifier(overrides map[Kind]int) *Classifier {
	statusCodes := make(map[Kind]int, len(defaultStatusCodes))

	for kind, statusCode := range defaultStatusCodes {
		statusCodes[kind] = statusCode
	}

	for kind, statusCode := range overrides {
		if _, ok := defaultStatusCodes[kind]; !ok {
			continue
		}

		if CheckStatusCode(statusCode) != nil {
			continue
		}

		statusCodes[kind] = statusCode
	}

	return &Classifier{
		statusCodes: statusCodes,
	}
}

// CheckStatusCode makes sure that a failure is never
// reported with a non-error HTTP status code.
func CheckStatusCode(statusCode int) error {
	if statusCode < http.StatusBadRequest || statusCode > 599 {
		return fmt.Errorf("status code %d is not an HTTP error status code (400-599)", statusCode)
	}

	return nil
}

func (classifier *Classifier) Classify(err error) Classification {
	var failureErr *Error

	switch {
	case errors.As(err, &failureErr):
		if failureErr == nil {
			return classifier.unexpected()
		}

		if _, ok := kindNames[failureErr.Kind]; !ok || failureErr.Kind == KindUnexpected {
			return classifier.unexpected()
		}

		return Classification{
			Kind:       failureErr.Kind,
			StatusCode: classifier.statusCodes[failureErr.Kind],
			Message:    failureErr.Message,
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Classification{
			Kind:       KindUpstream,
			StatusCode: classifier.statusCodes[KindUpstream],
			Message:    MessageTimeout,
		}
	default:
		return classifier.unexpected()
	}
}

func (classifier *Classifier) StatusCode(kind Kind) int {
	if statusCode, ok := classifier.statusCodes[kind]; ok {
		return statusCode
	}

	return classifier.statusCodes[KindUnexpected]
}

func (classifier *Classifier) unexpected() Classification {
	return Classification{
		Kind:       KindUnexpected,
		StatusCode: classifier.statusCodes[KindUnexpected],
		Message:    MessageUnexpected,
	}
}
