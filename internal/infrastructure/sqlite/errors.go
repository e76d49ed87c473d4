package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
)

// wrapErr clasifica un error del driver en la taxonomía de dominio y conserva el original.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var sqlErr *msqlite.Error
	if errors.As(err, &sqlErr) {
		code := sqlErr.Code()
		switch code & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrConflict, err)
		}
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_TRIGGER, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidInput, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
