package app_error

import (
	"encoding/json"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e AppError) Error() string {
	return e.Message
}

func (e AppError) JSON(w http.ResponseWriter) error {
	return json.NewEncoder(w).Encode(e)
}

func NewAppError(code int, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Message: msg,
		Field:   field,
	}
}

func Unauthorized(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, msg, "auth")
}

func Forbidden(msg string) *AppError {
	return NewAppError(http.StatusForbidden, msg, "access")
}

func NotFound(msg string) *AppError {
	return NewAppError(http.StatusNotFound, msg, "not-found")
}

func Validation(msg, field string) *AppError {
	return NewAppError(http.StatusBadRequest, msg, field)
}

func Internal(msg, field string) *AppError {
	return NewAppError(http.StatusInternalServerError, msg, field)
}

// Is reports whether err is an *AppError carrying the given status code.
func Is(err *AppError, code int) bool {
	return err != nil && err.Code == code
}
