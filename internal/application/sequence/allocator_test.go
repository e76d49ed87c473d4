package sequence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// memCounters contador en memoria; el runner copia el estado y solo lo publica al confirmar.
type memCounters struct {
	values map[string]int64
}

func (m *memCounters) Next(_ context.Context, category string) (int64, error) {
	m.values[category]++
	return m.values[category], nil
}

func (m *memCounters) RaiseTo(_ context.Context, category string, atLeast int64) (int64, error) {
	if m.values[category] < atLeast {
		m.values[category] = atLeast
	}
	return m.values[category], nil
}

func (m *memCounters) Get(_ context.Context, category string) (*entity.SequenceCounter, error) {
	v, ok := m.values[category]
	if !ok {
		return nil, nil
	}
	return &entity.SequenceCounter{Category: category, LastNumber: v}, nil
}

func (m *memCounters) List(_ context.Context) ([]*entity.SequenceCounter, error) {
	out := make([]*entity.SequenceCounter, 0, len(m.values))
	for k, v := range m.values {
		out = append(out, &entity.SequenceCounter{Category: k, LastNumber: v})
	}
	return out, nil
}

type fakeRunner struct {
	mu        sync.Mutex
	committed map[string]int64
	conflicts int // intentos que fallan con ErrConflict antes de funcionar
	calls     int
}

func newFakeRunner() *fakeRunner { return &fakeRunner{committed: map[string]int64{}} }

func (r *fakeRunner) RunSequence(ctx context.Context, fn func(repository.SequenceCounterRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ErrConflict
	}
	work := &memCounters{values: map[string]int64{}}
	for k, v := range r.committed {
		work.values[k] = v
	}
	if err := fn(work); err != nil {
		return err
	}
	r.committed = work.values
	return nil
}

func fastRetry() sequence.RetryPolicy {
	return sequence.RetryPolicy{MaxAttempts: 4, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestAllocate_Secuencial(t *testing.T) {
	runner := newFakeRunner()
	a := sequence.NewAllocator(runner, fastRetry(), logger.Nop())

	first, err := a.Allocate(context.Background(), "petshop")
	require.NoError(t, err)
	second, err := a.Allocate(context.Background(), "Pet")
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, "Pet_01", first.Code)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, "Pet_02", second.Code)
}

func TestAllocate_CategoriaInvalidaNoTocaElAlmacen(t *testing.T) {
	runner := newFakeRunner()
	a := sequence.NewAllocator(runner, fastRetry(), logger.Nop())

	_, err := a.Allocate(context.Background(), "hospital")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, runner.calls)
}

func TestAllocate_ReintentaConflictos(t *testing.T) {
	runner := newFakeRunner()
	runner.conflicts = 2
	a := sequence.NewAllocator(runner, fastRetry(), logger.Nop())

	alloc, err := a.Allocate(context.Background(), "fisioterapia")
	require.NoError(t, err)
	assert.Equal(t, int64(1), alloc.Number)
	assert.Equal(t, 3, runner.calls)
}

func TestAllocate_AgotaReintentos(t *testing.T) {
	runner := newFakeRunner()
	runner.conflicts = 10
	a := sequence.NewAllocator(runner, fastRetry(), logger.Nop())

	_, err := a.Allocate(context.Background(), "fisioterapia")
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 4, runner.calls)
	assert.Empty(t, runner.committed)
}

func TestAllocate_RespetaCancelacion(t *testing.T) {
	runner := newFakeRunner()
	runner.conflicts = 10
	policy := sequence.RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: time.Second}
	a := sequence.NewAllocator(runner, policy, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := a.Allocate(ctx, "petshop")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, runner.calls)
}

func TestRetryPolicy_NoReintentaOtrosErrores(t *testing.T) {
	calls := 0
	err := fastRetry().Do(context.Background(), nil, func() error {
		calls++
		return domain.ErrPersistence
	})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, 1, calls)
}

func TestFormat(t *testing.T) {
	a := sequence.NewAllocator(newFakeRunner(), fastRetry(), nil)
	code, err := a.Format("casa-repouso", 7)
	require.NoError(t, err)
	assert.Equal(t, "Casa_07", code)
}

func TestCounters_ListaVaciaNoNil(t *testing.T) {
	a := sequence.NewAllocator(newFakeRunner(), fastRetry(), nil)
	list, err := a.Counters(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
