package helper

import "net/http"

// AppError is an error that knows the HTTP status it is reported with. Only
// Message reaches the client; Err is kept for logs and errors.Is.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError falls back to the standard status text for an empty message.
func NewAppError(code int, message string) *AppError {
	if message == "" {
		message = http.StatusText(code)
	}
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func WrapError(code int, message string, err error) *AppError {
	appErr := NewAppError(code, message)
	appErr.Err = err
	return appErr
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message)
}

func NewUnauthorizedError(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func NewMethodNotAllowedError(message string) *AppError {
	return NewAppError(http.StatusMethodNotAllowed, message)
}

func NewTooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, message)
}

func NewInternalServerError(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message)
}

func NewServiceUnavailableError(message string) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message)
}
