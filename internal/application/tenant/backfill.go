package tenant

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	domainseq "github.com/cristiano-superacao/prescrimed-sub000/internal/domain/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/observability"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// BackfillOptions DryRun reporta sin escribir. Limit tope de asignaciones por corrida;
// los omitidos no cuentan. Limit <= 0 procesa todos los pendientes.
type BackfillOptions struct {
	DryRun bool
	Limit  int
}

// Backfill asigna códigos a tenants creados antes de que existiera el asignador.
type Backfill struct {
	txRunner  TxRunner
	tenants   repository.TenantRepository
	allocator *sequence.Allocator
	retry     sequence.RetryPolicy
	publisher events.Publisher
	log       *logger.Logger
}

// NewBackfill construye el coordinador.
func NewBackfill(
	txRunner TxRunner,
	tenants repository.TenantRepository,
	allocator *sequence.Allocator,
	retry sequence.RetryPolicy,
	publisher events.Publisher,
	log *logger.Logger,
) *Backfill {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Backfill{
		txRunner:  txRunner,
		tenants:   tenants,
		allocator: allocator,
		retry:     retry,
		publisher: publisher,
		log:       log.Child("component", "backfill"),
	}
}

// Run ejecuta el backfill:
//  1. calcula el mayor code_number existente por categoría;
//  2. eleva cada contador al menos a ese valor (una transacción por categoría);
//  3. recorre los tenants sin código del más antiguo al más nuevo, uno por transacción,
//     releyendo la fila con bloqueo y saltando los que ya tengan código.
//
// Es reejecutable: una segunda corrida no encuentra pendientes y no mueve los contadores.
// Ante el primer fallo devuelve el reporte parcial junto con el error.
func (b *Backfill) Run(ctx context.Context, opts BackfillOptions) (*dto.BackfillReport, error) {
	report := &dto.BackfillReport{
		DryRun:    opts.DryRun,
		Limit:     opts.Limit,
		Seeded:    map[string]int64{},
		Assigned:  []dto.BackfillAssignmentDTO{},
		Skipped:   []dto.BackfillSkipDTO{},
		StartedAt: time.Now().UTC(),
	}
	defer func() { report.FinishedAt = time.Now().UTC() }()

	ctx, span := observability.StartSpan(ctx, "tenant.Backfill")
	defer span.End()

	pending, err := b.tenants.CountMissingCode(ctx)
	if err != nil {
		return report, err
	}
	report.Pending = pending

	next, err := b.seed(ctx, opts.DryRun, report)
	if err != nil {
		return report, err
	}

	// sin tope en la consulta: los omitidos no deben ocupar la ventana del límite
	candidates, err := b.tenants.ListMissingCode(ctx, 0)
	if err != nil {
		return report, err
	}
	b.log.Info().Int("pending", pending).Int("candidates", len(candidates)).Bool("dry_run", opts.DryRun).Msg("backfill iniciado")

	for _, t := range candidates {
		if opts.Limit > 0 && len(report.Assigned) >= opts.Limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		cat, err := resolveCategory(t.Category)
		if err != nil {
			report.Skipped = append(report.Skipped, dto.BackfillSkipDTO{TenantID: t.ID, Reason: err.Error()})
			b.log.Warn().Str("tenant_id", t.ID).Str("category", t.Category).Msg("categoría inválida, tenant omitido")
			continue
		}

		if opts.DryRun {
			// sin escribir: se proyecta el número que tocaría con el contador ya elevado
			next[cat]++
			code, err := domainseq.FormatCode(cat, next[cat])
			if err != nil {
				return report, err
			}
			report.Assigned = append(report.Assigned, dto.BackfillAssignmentDTO{
				TenantID: t.ID, TenantName: t.Name, Category: string(cat), Code: code, CodeNumber: next[cat],
			})
			continue
		}

		assigned, err := b.assign(ctx, t.ID, cat)
		if err != nil {
			span.RecordError(err)
			return report, fmt.Errorf("backfill tenant %s: %w", t.ID, err)
		}
		if assigned == nil {
			report.Skipped = append(report.Skipped, dto.BackfillSkipDTO{TenantID: t.ID, Reason: "ya tenía código o no existe"})
			continue
		}
		observability.BackfillAssignedTotal.WithLabelValues(assigned.Category).Inc()
		report.Assigned = append(report.Assigned, dto.BackfillAssignmentDTO{
			TenantID:   assigned.ID,
			TenantName: assigned.Name,
			Category:   assigned.Category,
			Code:       assigned.Code,
			CodeNumber: *assigned.CodeNumber,
		})
		b.log.Info().Str("tenant_id", assigned.ID).Str("code", assigned.Code).Msg("código asignado")
		publishCodeAssigned(ctx, b.publisher, b.log, assigned, "backfill")
	}

	b.log.Info().Int("assigned", len(report.Assigned)).Int("skipped", len(report.Skipped)).Bool("dry_run", opts.DryRun).Msg("backfill terminado")
	return report, nil
}

// seed eleva los contadores al máximo observado y devuelve el último número vigente
// por categoría (base para proyectar en dry-run).
func (b *Backfill) seed(ctx context.Context, dryRun bool, report *dto.BackfillReport) (map[domainseq.Category]int64, error) {
	maxes, err := b.tenants.MaxCodeNumbers(ctx)
	if err != nil {
		return nil, err
	}
	current := map[domainseq.Category]int64{}
	err = b.txRunner.RunTenant(ctx, func(_ repository.TenantRepository, counters repository.SequenceCounterRepository) error {
		for _, cat := range domainseq.Categories() {
			c, err := counters.Get(ctx, string(cat))
			if err != nil {
				return err
			}
			if c != nil {
				current[cat] = c.LastNumber
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(maxes))
	for k := range maxes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, raw := range keys {
		cat, err := domainseq.ParseCategory(raw)
		if err != nil {
			b.log.Warn().Str("category", raw).Msg("categoría desconocida con códigos, no se siembra")
			continue
		}
		highest := maxes[raw]
		if dryRun {
			if highest > current[cat] {
				current[cat] = highest
			}
			report.Seeded[string(cat)] = current[cat]
			continue
		}
		var value int64
		err = b.retry.Do(ctx, nil, func() error {
			return b.txRunner.RunTenant(ctx, func(_ repository.TenantRepository, counters repository.SequenceCounterRepository) error {
				var err error
				value, err = counters.RaiseTo(ctx, string(cat), highest)
				return err
			})
		})
		if err != nil {
			return nil, fmt.Errorf("sembrar contador %s: %w", cat, err)
		}
		current[cat] = value
		report.Seeded[string(cat)] = value
	}
	return current, nil
}

// assign asigna código a un tenant en su propia transacción. Devuelve nil si el
// tenant ya no existe o ya tenía código al releerlo con bloqueo.
func (b *Backfill) assign(ctx context.Context, id string, cat domainseq.Category) (*entity.Tenant, error) {
	var assigned *entity.Tenant
	err := b.retry.Do(ctx, func(attempt int, err error) {
		b.log.Warn().Str("tenant_id", id).Int("attempt", attempt).Err(err).Msg("conflicto en backfill, reintentando")
	}, func() error {
		assigned = nil
		return b.txRunner.RunTenant(ctx, func(tenants repository.TenantRepository, counters repository.SequenceCounterRepository) error {
			t, err := tenants.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if t == nil || t.HasCode() {
				return nil
			}
			alloc, err := b.allocator.NextInTx(ctx, counters, cat)
			if err != nil {
				return err
			}
			if err := tenants.AssignCode(ctx, id, string(cat), alloc.Code, alloc.Number); err != nil {
				return err
			}
			n := alloc.Number
			t.Category, t.Code, t.CodeNumber = string(cat), alloc.Code, &n
			assigned = t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// resolveCategory aplica la categoría por defecto a registros legados sin categoría.
func resolveCategory(raw string) (domainseq.Category, error) {
	if strings.TrimSpace(raw) == "" {
		return domainseq.DefaultCategory, nil
	}
	return domainseq.ParseCategory(raw)
}
