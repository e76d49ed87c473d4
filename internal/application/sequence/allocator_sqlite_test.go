package sequence_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/testutil"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// 50 asignaciones concurrentes sobre un contador nuevo devuelven exactamente {1..50}.
func TestAllocator_SQLite_ConcurrentesSinHuecosNiRepetidos(t *testing.T) {
	env := testutil.NewSQLite(t)
	policy := sequence.RetryPolicy{MaxAttempts: 10, BaseDelay: 5 * time.Millisecond, MaxDelay: 100 * time.Millisecond}
	alloc := sequence.NewAllocator(env.Tx, policy, logger.Nop())

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []int64
		codes   = map[string]bool{}
		errs    []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := alloc.Allocate(context.Background(), "casa-repouso")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, a.Number)
			codes[a.Code] = true
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	want := make([]int64, n)
	for i := range want {
		want[i] = int64(i + 1)
	}
	assert.Equal(t, want, numbers)
	assert.Len(t, codes, n)
	assert.True(t, codes["Casa_01"])
	assert.True(t, codes["Casa_50"])

	c, err := env.Counters.Get(context.Background(), "casa-repouso")
	require.NoError(t, err)
	assert.Equal(t, int64(n), c.LastNumber)
}

func TestAllocator_SQLite_CategoriasIndependientes(t *testing.T) {
	env := testutil.NewSQLite(t)
	alloc := sequence.NewAllocator(env.Tx, sequence.DefaultRetryPolicy(), logger.Nop())
	ctx := context.Background()

	a1, err := alloc.Allocate(ctx, "petshop")
	require.NoError(t, err)
	b1, err := alloc.Allocate(ctx, "fisioterapia")
	require.NoError(t, err)
	a2, err := alloc.Allocate(ctx, "Pet")
	require.NoError(t, err)

	assert.Equal(t, "Pet_01", a1.Code)
	assert.Equal(t, "Fisio_01", b1.Code)
	assert.Equal(t, "Pet_02", a2.Code)

	counters, err := alloc.Counters(ctx)
	require.NoError(t, err)
	assert.Len(t, counters, 2)
}
