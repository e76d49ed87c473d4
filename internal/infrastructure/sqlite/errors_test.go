package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/infrastructure/sqlite"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/testutil"
)

// Con el candado de escritura tomado por otra conexión, la transacción agota el
// busy_timeout y el fallo se clasifica como conflicto sin efectos.
func TestTxRunner_CandadoOcupadoEsConflicto(t *testing.T) {
	env := testutil.NewSQLite(t)
	ctx := context.Background()

	other, err := sqlite.Open(ctx, env.Store.Path(), 50*time.Millisecond, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })

	holder, err := env.Store.DB().Conn(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = holder.Close() })
	_, err = holder.ExecContext(ctx, "BEGIN IMMEDIATE")
	require.NoError(t, err)

	called := false
	err = sqlite.NewTxRunner(other).RunSequence(ctx, func(c repository.SequenceCounterRepository) error {
		called = true
		_, err := c.Next(ctx, "petshop")
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict), "got %v", err)
	assert.False(t, errors.Is(err, domain.ErrPersistence))
	assert.False(t, called, "la función no corre sin candado")

	_, err = holder.ExecContext(ctx, "ROLLBACK")
	require.NoError(t, err)

	c, err := env.Counters.Get(ctx, "petshop")
	require.NoError(t, err)
	assert.Nil(t, c)

	// liberado el candado, el mismo runner avanza
	err = sqlite.NewTxRunner(other).RunSequence(ctx, func(c repository.SequenceCounterRepository) error {
		_, err := c.Next(ctx, "petshop")
		return err
	})
	require.NoError(t, err)
}
