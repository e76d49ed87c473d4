package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
)

func TestWrapErr_Clasifica(t *testing.T) {
	cases := map[string]error{
		codeSerializationFailure: domain.ErrConflict,
		codeDeadlockDetected:     domain.ErrConflict,
		codeLockNotAvailable:     domain.ErrConflict,
		codeUniqueViolation:      domain.ErrDuplicate,
		codeCheckViolation:       domain.ErrInvalidInput,
		"08006":                  domain.ErrPersistence,
	}
	for code, want := range cases {
		pgErr := &pgconn.PgError{Code: code}
		err := wrapErr("op", pgErr)
		assert.ErrorIs(t, err, want, code)
		var got *pgconn.PgError
		assert.True(t, errors.As(err, &got), code)
	}
}

func TestWrapErr_ContextoIntacto(t *testing.T) {
	err := wrapErr("op", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrPersistence)
	assert.Nil(t, wrapErr("op", nil))
}
