package webhook

import "fmt"

type ErrorCode string

const (
	ErrorMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"
	ErrorMissingSender    ErrorCode = "MISSING_SENDER"
)

// Error describes why a payload or one of its sub-events could not be used.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("webhook: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("webhook: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
