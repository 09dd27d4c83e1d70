package http

import (
	"fmt"
	"net/http"
)

// AppError is an error that knows which envelope status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NotFoundErrorf builds a 404 error with a formatted message.
func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return &AppError{
		Code:    "ERR_NOT_FOUND",
		Message: fmt.Sprintf(format, a...),
		Status:  http.StatusNotFound,
	}
}

// InternalErrorf builds a 500 error with a formatted message.
func InternalErrorf(format string, a ...interface{}) *AppError {
	return &AppError{
		Code:    "ERR_INTERNAL",
		Message: fmt.Sprintf(format, a...),
		Status:  http.StatusInternalServerError,
	}
}
