// Package sequence implementa el asignador de números de secuencia por categoría.
package sequence

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	domainseq "github.com/cristiano-superacao/prescrimed-sub000/internal/domain/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/observability"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// Allocation número asignado junto con su código visible.
type Allocation struct {
	Category domainseq.Category
	Number   int64
	Code     string
}

// Allocator emite enteros únicos y crecientes por categoría apoyándose en el
// contador atómico del almacén; no usa exclusión en memoria porque puede haber
// varias instancias del servicio.
type Allocator struct {
	txRunner TxRunner
	retry    RetryPolicy
	log      *logger.Logger
}

// NewAllocator construye el asignador.
func NewAllocator(txRunner TxRunner, retry RetryPolicy, log *logger.Logger) *Allocator {
	if log == nil {
		log = logger.Nop()
	}
	return &Allocator{txRunner: txRunner, retry: retry, log: log}
}

// Allocate valida la categoría, abre su propia transacción e incrementa el contador.
// Los conflictos de concurrencia se reintentan según la política configurada.
func (a *Allocator) Allocate(ctx context.Context, category string) (*Allocation, error) {
	cat, err := domainseq.ParseCategory(category)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "sequence.Allocate")
	defer span.End()
	span.SetAttributes(attribute.String("category", string(cat)))
	start := time.Now()

	var alloc *Allocation
	err = a.retry.Do(ctx, func(attempt int, err error) {
		observability.SequenceConflictRetriesTotal.WithLabelValues(string(cat)).Inc()
		a.log.Warn().Str("category", string(cat)).Int("attempt", attempt).Err(err).Msg("conflicto al asignar secuencia, reintentando")
	}, func() error {
		return a.txRunner.RunSequence(ctx, func(counters repository.SequenceCounterRepository) error {
			var err error
			alloc, err = a.NextInTx(ctx, counters, cat)
			return err
		})
	})
	observability.SequenceAllocationLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	observability.SequenceAllocationsTotal.WithLabelValues(string(cat)).Inc()
	a.log.Debug().Str("category", string(cat)).Int64("number", alloc.Number).Msg("secuencia asignada")
	return alloc, nil
}

// NextInTx asigna dentro de la transacción del llamador (registro de tenant, backfill).
// El incremento solo se confirma si el llamador confirma.
func (a *Allocator) NextInTx(ctx context.Context, counters repository.SequenceCounterRepository, cat domainseq.Category) (*Allocation, error) {
	if _, err := cat.Prefix(); err != nil {
		return nil, err
	}
	n, err := counters.Next(ctx, string(cat))
	if err != nil {
		return nil, err
	}
	code, err := domainseq.FormatCode(cat, n)
	if err != nil {
		return nil, err
	}
	return &Allocation{Category: cat, Number: n, Code: code}, nil
}

// Format construye el código visible de category y number sin tocar el almacén.
func (a *Allocator) Format(category string, number int64) (string, error) {
	cat, err := domainseq.ParseCategory(category)
	if err != nil {
		return "", err
	}
	return domainseq.FormatCode(cat, number)
}

// Counters lista el estado de los contadores (solo lectura).
func (a *Allocator) Counters(ctx context.Context) ([]*entity.SequenceCounter, error) {
	var list []*entity.SequenceCounter
	err := a.txRunner.RunSequence(ctx, func(counters repository.SequenceCounterRepository) error {
		var err error
		list, err = counters.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*entity.SequenceCounter{}
	}
	return list, nil
}
