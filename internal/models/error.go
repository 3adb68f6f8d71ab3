package models

import "time"

// ErrorCode representa el código de error
type ErrorCode string

const (
	ErrorCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeConflict           ErrorCode = "CONFLICT"
	ErrorCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrorCodeInternal           ErrorCode = "INTERNAL"
)

// FieldError representa un error de validación sobre un campo
type FieldError struct {
	Field         string      `json:"field"`
	Message       string      `json:"message"`
	RejectedValue interface{} `json:"rejected_value,omitempty"`
}

// APIResponse es el sobre común de todas las respuestas de la API
type APIResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Code      ErrorCode    `json:"code,omitempty"`
	Data      interface{}  `json:"data,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// NewSuccessResponse crea una respuesta exitosa con datos
func NewSuccessResponse(data interface{}, message string) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorResponse crea una respuesta de error
func NewErrorResponse(code ErrorCode, message string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Code:      code,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError crea un error de validación con detalles por campo
func NewValidationError(message string, details []FieldError) APIResponse {
	resp := NewErrorResponse(ErrorCodeInvalidRequest, message)
	resp.Errors = details
	return resp
}

// NewConflictError crea un error de conflicto
func NewConflictError(message string) APIResponse {
	return NewErrorResponse(ErrorCodeConflict, message)
}

// NewNotFoundError crea un error de recurso no encontrado
func NewNotFoundError(message string) APIResponse {
	return NewErrorResponse(ErrorCodeNotFound, message)
}

// NewRateLimitedError crea un error de rate limiting
func NewRateLimitedError(message string) APIResponse {
	return NewErrorResponse(ErrorCodeRateLimited, message)
}

// NewServiceUnavailableError crea un error de dependencia externa no disponible
func NewServiceUnavailableError(message string) APIResponse {
	return NewErrorResponse(ErrorCodeServiceUnavailable, message)
}

// NewInternalError crea un error interno del servidor
func NewInternalError(message string) APIResponse {
	return NewErrorResponse(ErrorCodeInternal, message)
}
