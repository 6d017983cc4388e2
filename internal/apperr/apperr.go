// Package apperr defines the domain error taxonomy and its mapping to the
// Cognito wire protocol. Services return these errors; the HTTP layer
// serializes them as {"__type": "...", "message": "..."} bodies.
package apperr

import (
	"errors"
	"fmt"
)

// Wire __type values for the Cognito Identity Provider JSON protocol.
const (
	TypeNotAuthorized         = "NotAuthorizedException"
	TypeUserNotFound          = "UserNotFoundException"
	TypeUserNotConfirmed      = "UserNotConfirmedException"
	TypePasswordResetRequired = "PasswordResetRequiredException"
	TypeCodeMismatch          = "CodeMismatchException"
	TypeExpiredCode           = "ExpiredCodeException"
	TypeInvalidParameter      = "InvalidParameterException"
	TypeInvalidPassword       = "InvalidPasswordException"
	TypeUsernameExists        = "UsernameExistsException"
	TypeResourceNotFound      = "ResourceNotFoundException"
	TypeGroupExists           = "GroupExistsException"
	TypeUnsupported           = "UnsupportedOperationException"
	TypeInternalError         = "InternalErrorException"
)

// Error is a domain error that knows its wire representation.
type Error struct {
	// Type is the wire __type, e.g. "NotAuthorizedException".
	Type    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Is reports whether target is an *Error with the same Type. This lets
// callers match with errors.Is against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Type == e.Type
}

// Sentinels for errors.Is matching in services and tests.
var (
	ErrNotAuthorized         = &Error{Type: TypeNotAuthorized}
	ErrUserNotFound          = &Error{Type: TypeUserNotFound}
	ErrUserNotConfirmed      = &Error{Type: TypeUserNotConfirmed}
	ErrPasswordResetRequired = &Error{Type: TypePasswordResetRequired}
	ErrCodeMismatch          = &Error{Type: TypeCodeMismatch}
	ErrExpiredCode           = &Error{Type: TypeExpiredCode}
	ErrInvalidParameter      = &Error{Type: TypeInvalidParameter}
	ErrUsernameExists        = &Error{Type: TypeUsernameExists}
	ErrResourceNotFound      = &Error{Type: TypeResourceNotFound}
	ErrUnsupported           = &Error{Type: TypeUnsupported}
	ErrInternal              = &Error{Type: TypeInternalError}
)

// NotAuthorized returns a NotAuthorizedException with the given message.
func NotAuthorized(msg string) *Error {
	return &Error{Type: TypeNotAuthorized, Message: msg}
}

// InvalidPassword reports a password mismatch. Upstream Cognito reports
// mismatches as NotAuthorized on the wire, so this maps there too; the
// distinct constructor keeps call sites honest about the cause.
func InvalidPassword() *Error {
	return &Error{Type: TypeNotAuthorized, Message: "Incorrect username or password."}
}

// UserNotFound returns a UserNotFoundException.
func UserNotFound() *Error {
	return &Error{Type: TypeUserNotFound, Message: "User does not exist."}
}

// UserNotConfirmed returns a UserNotConfirmedException.
func UserNotConfirmed() *Error {
	return &Error{Type: TypeUserNotConfirmed, Message: "User is not confirmed."}
}

// PasswordResetRequired returns a PasswordResetRequiredException.
func PasswordResetRequired() *Error {
	return &Error{Type: TypePasswordResetRequired, Message: "Password reset required for the user"}
}

// CodeMismatch returns a CodeMismatchException.
func CodeMismatch() *Error {
	return &Error{Type: TypeCodeMismatch, Message: "Invalid verification code provided, please try again."}
}

// ExpiredCode returns an ExpiredCodeException.
func ExpiredCode() *Error {
	return &Error{Type: TypeExpiredCode, Message: "Invalid code provided, please request a code again."}
}

// InvalidParameter returns an InvalidParameterException with a formatted message.
func InvalidParameter(format string, args ...any) *Error {
	return &Error{Type: TypeInvalidParameter, Message: fmt.Sprintf(format, args...)}
}

// PasswordPolicyViolation returns an InvalidPasswordException describing the
// failed pool password-policy requirement.
func PasswordPolicyViolation(msg string) *Error {
	return &Error{Type: TypeInvalidPassword, Message: msg}
}

// UsernameExists returns a UsernameExistsException.
func UsernameExists() *Error {
	return &Error{Type: TypeUsernameExists, Message: "User account already exists"}
}

// ResourceNotFound returns a ResourceNotFoundException for the named resource.
func ResourceNotFound(resource string) *Error {
	return &Error{Type: TypeResourceNotFound, Message: fmt.Sprintf("%s not found.", resource)}
}

// GroupExists returns a GroupExistsException.
func GroupExists() *Error {
	return &Error{Type: TypeGroupExists, Message: "A group with the name already exists."}
}

// Unsupported marks an emulator limitation in the given detail.
func Unsupported(detail string) *Error {
	return &Error{Type: TypeUnsupported, Message: fmt.Sprintf("Unsupported: %s", detail)}
}

// Internal wraps an unexpected failure as an InternalErrorException.
func Internal(err error) *Error {
	return &Error{Type: TypeInternalError, Message: err.Error()}
}

// Wire returns the HTTP status, __type, and message for err. Domain errors
// keep their type; anything else is an InternalErrorException. Per the AWS
// JSON protocol client errors are 400; internal failures are 500.
func Wire(err error) (status int, typ string, msg string) {
	var e *Error
	if errors.As(err, &e) {
		if e.Type == TypeInternalError {
			return 500, e.Type, e.Message
		}
		return 400, e.Type, e.Message
	}
	return 500, TypeInternalError, err.Error()
}
