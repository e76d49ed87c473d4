package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio. La capa de infraestructura envuelve los errores del driver
// con alguno de estos sentinelas para que los casos de uso y los handlers
// decidan sin conocer la base de datos.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto de concurrencia, reintente")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrPersistence       = errors.New("fallo de persistencia")
)

// InsufficientStockError detalla una salida rechazada. Es seguro mostrar Available al cliente.
type InsufficientStockError struct {
	ItemID    string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %s, solicitado %s",
		e.ItemID, e.Available.String(), e.Requested.String())
}

// Is permite errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Invalid envuelve ErrInvalidInput con un detalle legible.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
