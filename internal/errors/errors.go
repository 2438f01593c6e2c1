package errors

import "fmt"

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status carried by err, or 500 for
// any other error.
func StatusCode(err error) int {
	if e, ok := err.(*ErrorWithStatusCode); ok {
		return e.StatusCode
	}
	return 500
}

// Validation marks user-correctable input problems. Field details are kept
// in the message so the widget can show them.
func Validation(format string, args ...any) error {
	return &ErrorWithStatusCode{Message: fmt.Sprintf(format, args...), StatusCode: 400}
}

// Unauthorized covers both unknown API keys and admin token mismatches.
// The message stays generic so a failed delete never reveals whether the
// row id existed.
func Unauthorized(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: 401}
}

// Captcha marks a missing or failed human verification.
func Captcha(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: 400}
}

// Storage marks backend failures. Not user-correctable; callers log the
// wrapped cause and surface only the generic message.
func Storage(format string, args ...any) error {
	return &ErrorWithStatusCode{Message: fmt.Sprintf(format, args...), StatusCode: 500}
}

// DataIntegrity marks persisted state that violates a structural invariant,
// e.g. a reply chain that loops.
func DataIntegrity(message string) error {
	return &ErrorWithStatusCode{Message: message, StatusCode: 500}
}
