package apperror

import "net/http"

// AppError is a domain error that carries the HTTP status code it should map
// to at the response boundary. Everything above the boundary works with typed
// errors; only response.Error translates them into a wire format.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code and message.
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// BadRequest is a 400 (validation) error.
func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message)
}

// Unauthorized is a 401 error.
func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, message)
}

// Forbidden is a 403 (authorization) error.
func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message)
}

// NotFound is a 404 error.
func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message)
}

// Conflict is a 409 (duplicate or overlap) error.
func Conflict(message string) *AppError {
	return New(http.StatusConflict, message)
}
