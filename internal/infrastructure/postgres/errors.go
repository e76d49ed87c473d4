package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
)

// SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// wrapErr clasifica un error del driver en la taxonomía de dominio y conserva el original.
// Cancelaciones de contexto pasan sin tocar.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrDuplicate, err)
		case codeCheckViolation:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
		case codeQueryCanceled:
			// statement_timeout / lock_timeout vencido mientras esperaba
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
