package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrUnknownMethod     = errors.New("método de valuación desconocido")
)

// ValidationError error de construcción: la entidad quedó malformada al crearse
// (peso negativo, max < min, total inconsistente). El caller no debe continuar
// con una entidad a medio construir.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError construye un ValidationError de campo.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation indica si err es un error de construcción de entidad.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
