// Package failure describes the ways an operation can fail and how
// each of them is presented to the caller.
package failure

import (
	"fmt"
	"strings"
)

type Kind int

const (
	KindUnexpected Kind = iota
	KindValidation
	KindNotFound
	KindUpstream
)

var kindNames = map[Kind]string{
	KindUnexpected: "UnexpectedError",
	KindValidation: "ValidationError",
	KindNotFound:   "NotFound",
	KindUpstream:   "UpstreamFailure",
}

func (kind Kind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(kind))
}

// ParseKind accepts both the full kind name ("UpstreamFailure")
// and its short lowercase form ("upstream").
func ParseKind(s string) (Kind, error) {
	normalized := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(s))
	normalized = strings.TrimSuffix(normalized, "error")
	normalized = strings.TrimSuffix(normalized, "failure")

	switch normalized {
	case "unexpected":
		return KindUnexpected, nil
	case "validation":
		return KindValidation, nil
	case "notfound":
		return KindNotFound, nil
	case "upstream":
		return KindUpstream, nil
	default:
		return 0, fmt.Errorf("unknown error kind %q", s)
	}
}

// Error is a classified failure. Message is safe to show to the caller,
// while Err carries the underlying cause for the logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Err == nil {
		return e.Message
	}

	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func Validationf(format string, args ...any) error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func NotFoundf(format string, args ...any) error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

func Upstream(err error, format string, args ...any) error {
	return &Error{
		Kind:    KindUpstream,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}
