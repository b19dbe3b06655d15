package models

import (
	"errors"
	"fmt"
)

// Kind classifies an application error. Handlers map kinds to HTTP statuses.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindDuplicateUser      Kind = "DUPLICATE_USER"
	KindInvalidCredentials Kind = "INVALID_CREDENTIALS"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindForbidden          Kind = "FORBIDDEN"
	KindNotFound           Kind = "NOT_FOUND"
	KindAlreadyLiked       Kind = "ALREADY_LIKED"
	KindNotLiked           Kind = "NOT_LIKED"
	KindStorage            Kind = "STORAGE_ERROR"
)

// Sentinels usable with errors.Is against any *AppError of the same kind.
var (
	ErrValidation         = &AppError{Kind: KindValidation}
	ErrDuplicateUser      = &AppError{Kind: KindDuplicateUser}
	ErrInvalidCredentials = &AppError{Kind: KindInvalidCredentials}
	ErrUnauthenticated    = &AppError{Kind: KindUnauthenticated}
	ErrForbidden          = &AppError{Kind: KindForbidden}
	ErrNotFound           = &AppError{Kind: KindNotFound}
	ErrAlreadyLiked       = &AppError{Kind: KindAlreadyLiked}
	ErrNotLiked           = &AppError{Kind: KindNotLiked}
	ErrStorage            = &AppError{Kind: KindStorage}
)

// AppError represents a custom application error
type AppError struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on kind so that errors.Is(err, ErrNotFound) holds for any not-found error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first AppError in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

func NewDuplicateUserError() *AppError {
	return &AppError{Kind: KindDuplicateUser, Message: "User already exists"}
}

func NewInvalidCredentialsError() *AppError {
	return &AppError{Kind: KindInvalidCredentials, Message: "Invalid credentials"}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func NewAlreadyLikedError() *AppError {
	return &AppError{Kind: KindAlreadyLiked, Message: "Post already liked"}
}

func NewNotLikedError() *AppError {
	return &AppError{Kind: KindNotLiked, Message: "Post has not yet been liked"}
}

// NewStorageError wraps an unexpected persistence failure. Its message is never shown to callers.
func NewStorageError(op string, err error) *AppError {
	return &AppError{Kind: KindStorage, Message: op, Err: err}
}
