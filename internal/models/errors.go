package models

import (
	"errors"
	"fmt"
)

// Errores del ciclo de vida de clientes. Se propagan sin cambios hasta la capa HTTP.
var (
	ErrClientNotFound      = errors.New("client not found")
	ErrDuplicateEmail      = errors.New("a client with this email already exists")
	ErrDuplicatePhone      = errors.New("a client with this phone number already exists")
	ErrInvalidCountryCode  = errors.New("invalid country code")
	ErrResolverUnavailable = errors.New("country service unavailable")
	ErrConflict            = errors.New("a record with the provided data already exists")
)

// ConstraintError describe una violación de unicidad detectada por el almacenamiento al escribir
type ConstraintError struct {
	Constraint string
	Field      string
	Err        error
}

// Error implementa la interfaz error
func (e *ConstraintError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("unique constraint %q violated on %s: %v", e.Constraint, e.Field, e.Err)
	}
	return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
}

// Unwrap retorna el error original del motor
func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is permite comparar con ErrConflict
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConflict
}

// CountryCodeError agrega el código de país a un error del resolver
type CountryCodeError struct {
	Code string
	Err  error
}

// Error implementa la interfaz error
func (e *CountryCodeError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Code)
}

// Unwrap retorna el error de categoría (ErrInvalidCountryCode o ErrResolverUnavailable)
func (e *CountryCodeError) Unwrap() error {
	return e.Err
}

// ErrStorageNotConfigured indica que no hay storage de objetos para archivar exportaciones
var ErrStorageNotConfigured = errors.New("object storage is not configured")
