package sequence

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
)

// RetryPolicy reintenta operaciones que fallaron con domain.ErrConflict
// usando backoff exponencial con jitter. Solo sirve para operaciones sin efecto
// visible si el intento previo no llegó a confirmar.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy 5 intentos, 10ms base, 500ms máximo.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: 500 * time.Millisecond}
}

// Do ejecuta fn hasta MaxAttempts veces mientras devuelva ErrConflict.
// onRetry (opcional) se llama antes de cada espera con el número de intento fallido.
func (p RetryPolicy) Do(ctx context.Context, onRetry func(attempt int, err error), fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil || !errors.Is(err, domain.ErrConflict) {
			return err
		}
		if attempt == attempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		timer := time.NewTimer(p.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	delay := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && (delay > p.MaxDelay || delay <= 0) {
		delay = p.MaxDelay
	}
	// jitter en [delay/2, delay]
	half := int64(delay / 2)
	return time.Duration(half + rand.Int63n(half+1))
}
