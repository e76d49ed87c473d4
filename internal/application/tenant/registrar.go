// Package tenant contiene el registro de tenants con asignación de código y el
// backfill de códigos para tenants legados.
package tenant

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/dto"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	domainseq "github.com/cristiano-superacao/prescrimed-sub000/internal/domain/sequence"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/observability"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

// Registrar crea tenants asignando su código en la misma transacción del insert.
type Registrar struct {
	txRunner  TxRunner
	tenants   repository.TenantRepository
	allocator *sequence.Allocator
	retry     sequence.RetryPolicy
	publisher events.Publisher
	log       *logger.Logger
}

// NewRegistrar construye el caso de uso. tenants se usa solo para lecturas fuera de transacción.
func NewRegistrar(
	txRunner TxRunner,
	tenants repository.TenantRepository,
	allocator *sequence.Allocator,
	retry sequence.RetryPolicy,
	publisher events.Publisher,
	log *logger.Logger,
) *Registrar {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Registrar{
		txRunner:  txRunner,
		tenants:   tenants,
		allocator: allocator,
		retry:     retry,
		publisher: publisher,
		log:       log,
	}
}

// Register valida la categoría antes de tocar el almacén y luego, en una sola
// transacción, asigna el código (o eleva el contador si vino uno explícito) e
// inserta el tenant. Si el insert falla el incremento se revierte con él.
func (r *Registrar) Register(ctx context.Context, in dto.CreateTenantRequest) (*entity.Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("nombre requerido")
	}
	cat, err := domainseq.ParseCategory(in.Category)
	if err != nil {
		return nil, err
	}

	var explicit int64
	if code := strings.TrimSpace(in.Code); code != "" {
		codeCat, n, err := domainseq.ParseCode(code)
		if err != nil {
			return nil, err
		}
		if codeCat != cat {
			return nil, domain.Invalid("el código %q no corresponde a la categoría %s", code, cat)
		}
		explicit = n
	}

	ctx, span := observability.StartSpan(ctx, "tenant.Register")
	defer span.End()

	var created *entity.Tenant
	err = r.retry.Do(ctx, func(attempt int, err error) {
		r.log.Warn().Str("category", string(cat)).Int("attempt", attempt).Err(err).Msg("conflicto al registrar tenant, reintentando")
	}, func() error {
		now := time.Now().UTC()
		t := &entity.Tenant{
			ID:        uuid.New().String(),
			Name:      name,
			Document:  strings.TrimSpace(in.Document),
			Email:     strings.TrimSpace(in.Email),
			Category:  string(cat),
			Status:    entity.TenantStatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return r.txRunner.RunTenant(ctx, func(tenants repository.TenantRepository, counters repository.SequenceCounterRepository) error {
			if explicit > 0 {
				if _, err := counters.RaiseTo(ctx, string(cat), explicit); err != nil {
					return err
				}
				code, err := domainseq.FormatCode(cat, explicit)
				if err != nil {
					return err
				}
				n := explicit
				t.Code, t.CodeNumber = code, &n
			} else {
				alloc, err := r.allocator.NextInTx(ctx, counters, cat)
				if err != nil {
					return err
				}
				n := alloc.Number
				t.Code, t.CodeNumber = alloc.Code, &n
			}
			if err := tenants.Create(ctx, t); err != nil {
				return err
			}
			created = t
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	observability.TenantsRegisteredTotal.WithLabelValues(created.Category).Inc()
	r.log.Info().Str("tenant_id", created.ID).Str("category", created.Category).Str("code", created.Code).Msg("tenant registrado")
	publishCodeAssigned(ctx, r.publisher, r.log, created, "register")
	return created, nil
}

// GetByID obtiene un tenant o domain.ErrNotFound.
func (r *Registrar) GetByID(ctx context.Context, id string) (*entity.Tenant, error) {
	t, err := r.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

// List devuelve una página de tenants, más antiguos primero.
func (r *Registrar) List(ctx context.Context, page dto.PageRequest) ([]*entity.Tenant, error) {
	page.DefaultPage()
	return r.tenants.List(ctx, page.Limit, page.Offset)
}

// ToResponse convierte la entidad al DTO de salida.
func ToResponse(t *entity.Tenant) dto.TenantResponse {
	return dto.TenantResponse{
		ID:         t.ID,
		Name:       t.Name,
		Document:   t.Document,
		Email:      t.Email,
		Category:   t.Category,
		Code:       t.Code,
		CodeNumber: t.CodeNumber,
		Status:     t.Status,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func publishCodeAssigned(ctx context.Context, pub events.Publisher, log *logger.Logger, t *entity.Tenant, source string) {
	if t.CodeNumber == nil {
		return
	}
	err := pub.Publish(ctx, events.Event{
		ID:         uuid.New().String(),
		Type:       events.TypeTenantCodeAssigned,
		Key:        t.ID,
		TenantID:   t.ID,
		OccurredAt: time.Now().UTC(),
		Payload: events.TenantCodeAssigned{
			Category:   t.Category,
			Code:       t.Code,
			CodeNumber: *t.CodeNumber,
			Source:     source,
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", t.ID).Msg("no se pudo publicar tenant.code.assigned")
	}
}
