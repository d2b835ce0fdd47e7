package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so transports can map them without string matching
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindInvalidInput    ErrorKind = "invalid_input"
	KindConflict        ErrorKind = "conflict"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindNotFound        ErrorKind = "not_found"
	KindExpired         ErrorKind = "expired"
	KindInvalid         ErrorKind = "invalid"
	KindNotReady        ErrorKind = "not_ready"
	KindUnreachable     ErrorKind = "unreachable"
	KindConfigMissing   ErrorKind = "config_missing"
	KindPersistence     ErrorKind = "persistence"
	KindInternal        ErrorKind = "internal"
)

// Error is a classified error. Field is set for validation failures.
type Error struct {
	Kind    ErrorKind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a classified error
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError classifies an underlying error
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ValidationError reports a user-correctable problem with one request field
func ValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// KindOf returns the kind of the outermost classified error in the chain,
// or KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the classified message, or fallback for unclassified errors
func MessageOf(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}

// Account errors
var (
	ErrUserNotFound       = NewError(KindNotFound, "user not found")
	ErrUserAlreadyExists  = NewError(KindConflict, "User with this email already exists")
	ErrInvalidCredentials = NewError(KindUnauthenticated, "Invalid email or password")
	ErrUserInactive       = NewError(KindUnauthenticated, "Account is deactivated")
	ErrInvalidEmail       = ValidationError("email", "Invalid email format")
)

// Token errors
var (
	ErrTokenExpired   = NewError(KindExpired, "Token has expired")
	ErrTokenInvalid   = NewError(KindInvalid, "Invalid token")
	ErrTokenMissing   = NewError(KindUnauthenticated, "Authentication token is missing")
	ErrAuthHeader     = NewError(KindUnauthenticated, "Invalid authorization header format")
	ErrUnauthorized   = NewError(KindUnauthenticated, "Authentication required")
	ErrTokenSigning   = NewError(KindInternal, "failed to sign token")
	ErrSecretRequired = NewError(KindConfigMissing, "token signing secret is required")
)

// Storage errors
var (
	ErrStoreConfigMissing = NewError(KindConfigMissing, "database connection string is not configured")
	ErrStoreUnreachable   = NewError(KindUnreachable, "database is unreachable")
	ErrPersistence        = NewError(KindPersistence, "failed to persist record")
)

// Inference errors
var (
	ErrModelNotReady        = NewError(KindNotReady, "model artifacts are not available")
	ErrInvalidFeatureVector = NewError(KindInvalidInput, "feature vector must contain exactly 8 numeric values")
)
