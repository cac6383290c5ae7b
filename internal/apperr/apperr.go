// Package apperr is the error taxonomy shared by services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorizedAccess
	KindInvalidData
	KindUnauthenticated
)

// FieldErrors maps a payload field to its validation messages.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f FieldErrors) Has(field string) bool {
	return len(f[field]) > 0
}

func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Fields returns the field names in stable order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Error is a classified failure with a stable machine code and a fixed
// human readable message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  FieldErrors
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and code so callers can compare against the
// predefined values with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorizedAccess:
		return http.StatusForbidden
	case KindInvalidData:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Detail is the value rendered under "detail": field errors for invalid
// payloads, the fixed message otherwise.
func (e *Error) Detail() any {
	if e.Kind == KindInvalidData && !e.Fields.Empty() {
		return e.Fields
	}
	if e.Kind == KindInternal && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

var (
	ErrPostNotFound     = &Error{Kind: KindNotFound, Code: "blog_post_not_found", Message: "Blog post not found."}
	ErrCategoryNotFound = &Error{Kind: KindNotFound, Code: "category_not_found", Message: "Category not found."}
	ErrTagNotFound      = &Error{Kind: KindNotFound, Code: "tag_not_found", Message: "Tag not found."}
	ErrCommentNotFound  = &Error{Kind: KindNotFound, Code: "comment_not_found", Message: "Comment not found."}
	ErrUserNotFound     = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "User not found."}

	ErrUnauthorizedAccess = &Error{
		Kind:    KindUnauthorizedAccess,
		Code:    "unauthorized_access",
		Message: "You do not have permission to perform this action.",
	}

	ErrTokenNotValid = &Error{
		Kind:    KindUnauthenticated,
		Code:    "token_not_valid",
		Message: "Given token not valid for any token type.",
	}
	ErrNoActiveAccount = &Error{
		Kind:    KindUnauthenticated,
		Code:    "no_active_account",
		Message: "No active account found with the given credentials.",
	}
)

const (
	CodeInvalidBlogData = "invalid_blog_data"
	CodeInternal        = "internal_server_error"
)

// InvalidData wraps field level validation failures.
func InvalidData(fields FieldErrors) *Error {
	return &Error{
		Kind:    KindInvalidData,
		Code:    CodeInvalidBlogData,
		Message: "Invalid blog post data.",
		Fields:  fields,
	}
}

// InvalidField is InvalidData for a single field.
func InvalidField(field, msg string) *Error {
	fields := FieldErrors{}
	fields.Add(field, msg)
	return InvalidData(fields)
}

// Internal wraps an unexpected failure. The wrapped error's text is surfaced.
func Internal(err error) *Error {
	return &Error{
		Kind:    KindInternal,
		Code:    CodeInternal,
		Message: "Internal Server Error",
		Err:     err,
	}
}

// From classifies any error. Errors outside the taxonomy become Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
