// Package apperror holds the typed errors shared by repositories, services and controllers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindCreationFailed
	KindReadFailed
	KindUpdateFailed
	KindDeletionFailed
	KindDuplicate
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindForbidden:
		return "Forbidden"
	case KindValidation:
		return "ValidationError"
	case KindCreationFailed:
		return "CreationFailed"
	case KindReadFailed:
		return "ReadFailed"
	case KindUpdateFailed:
		return "UpdateFailed"
	case KindDeletionFailed:
		return "DeletionFailed"
	case KindDuplicate:
		return "DuplicateResource"
	case KindUnauthorized:
		return "Unauthorized"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error carrying the same code, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// Wrap returns a copy of e carrying cause
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrCollectionNotFound      = New(KindNotFound, "COLLECTION_NOT_FOUND", "collection not found")
	ErrAttributeNotFound       = New(KindNotFound, "ATTRIBUTE_NOT_FOUND", "attribute not found")
	ErrEndpointNotFound        = New(KindNotFound, "ENDPOINT_NOT_FOUND", "endpoint not found")
	ErrFileNotFound            = New(KindNotFound, "FILE_NOT_FOUND", "file not found")
	ErrResourceNotFound        = New(KindNotFound, "RESOURCE_NOT_FOUND", "resource not found")
	ErrPostsCollectionNotFound = New(KindNotFound, "POSTS_COLLECTION_NOT_FOUND", "posts collection not found")
	ErrNoCollectionFound       = New(KindNotFound, "NO_COLLECTION_FOUND", "no collection found")
	ErrSessionNotFound         = New(KindNotFound, "SESSION_NOT_FOUND", "upload session not found")
	ErrUserNotFound            = New(KindNotFound, "USER_NOT_FOUND", "user not found")

	ErrForbidden = New(KindForbidden, "FORBIDDEN", "you do not have access to this resource")

	ErrEndpointCreationFailed = New(KindCreationFailed, "ENDPOINT_CREATION_FAILED", "endpoint creation failed")

	ErrDuplicateSlug     = New(KindDuplicate, "DUPLICATE_SLUG", "slug already exists")
	ErrDuplicateEmail    = New(KindDuplicate, "DUPLICATE_EMAIL", "email already registered")
	ErrDuplicateUsername = New(KindDuplicate, "DUPLICATE_USERNAME", "username already taken")

	ErrInvalidCredentials = New(KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrUnauthorized       = New(KindUnauthorized, "UNAUTHORIZED", "unauthorized")
)

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
}

func Creation(message string, cause error) *Error {
	return &Error{Kind: KindCreationFailed, Code: "DOCUMENT_CREATION_FAILED", Message: message, Err: cause}
}

func Read(message string, cause error) *Error {
	return &Error{Kind: KindReadFailed, Code: "DOCUMENT_READ_FAILED", Message: message, Err: cause}
}

func Update(message string, cause error) *Error {
	return &Error{Kind: KindUpdateFailed, Code: "DOCUMENT_UPDATE_FAILED", Message: message, Err: cause}
}

func Deletion(message string, cause error) *Error {
	return &Error{Kind: KindDeletionFailed, Code: "DOCUMENT_DELETION_FAILED", Message: message, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTyped reports whether err carries an *Error
func IsTyped(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindDuplicate:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
