// Package archive exporta el libro de stock de un tenant a un almacén de objetos
// como documento JSON comprimido.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/entity"
	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain/repository"
	"github.com/cristiano-superacao/prescrimed-sub000/pkg/logger"
)

const (
	contentType   = "application/gzip"
	formatVersion = 1
	pageSize      = 500
	keyPrefix     = "ledger/"
)

// Document contenido de un archivo exportado.
type Document struct {
	Version     int                       `json:"version"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Tenant      *entity.Tenant            `json:"tenant"`
	Counters    []*entity.SequenceCounter `json:"counters"`
	Items       []*entity.StockItem       `json:"items"`
	Movements   []*entity.StockMovement   `json:"movements"` // orden de confirmación
}

// Exporter arma y guarda el documento. Solo lee del libro.
type Exporter struct {
	tenants   repository.TenantRepository
	counters  repository.SequenceCounterRepository
	items     repository.StockItemRepository
	movements repository.StockMovementRepository
	store     BlobStore
	log       *logger.Logger
	now       func() time.Time
}

// NewExporter construye el exportador con repositorios de solo lectura.
func NewExporter(
	tenants repository.TenantRepository,
	counters repository.SequenceCounterRepository,
	items repository.StockItemRepository,
	movements repository.StockMovementRepository,
	store BlobStore,
	log *logger.Logger,
) *Exporter {
	if log == nil {
		log = logger.Nop()
	}
	return &Exporter{
		tenants:   tenants,
		counters:  counters,
		items:     items,
		movements: movements,
		store:     store,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Export genera el archivo del tenant y devuelve su ubicación.
func (e *Exporter) Export(ctx context.Context, tenantID string) (*BlobInfo, *Document, error) {
	t, err := e.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, domain.ErrNotFound
	}

	doc := &Document{Version: formatVersion, GeneratedAt: e.now(), Tenant: t}
	if doc.Counters, err = e.counters.List(ctx); err != nil {
		return nil, nil, err
	}
	if doc.Items, err = e.allItems(ctx, tenantID); err != nil {
		return nil, nil, err
	}
	if doc.Movements, err = e.movements.ListChronological(ctx, tenantID, ""); err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(doc); err != nil {
		return nil, nil, fmt.Errorf("codificar archivo: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("comprimir archivo: %w", err)
	}

	info, err := e.store.Put(ctx, archiveKey(t, doc.GeneratedAt), &buf, contentType)
	if err != nil {
		return nil, nil, fmt.Errorf("guardar archivo: %w", err)
	}
	e.log.Info().Str("tenant_id", tenantID).Str("key", info.Key).Int("items", len(doc.Items)).Int("movements", len(doc.Movements)).Msg("libro archivado")
	return &info, doc, nil
}

// List archivos existentes del tenant, ordenados por clave.
func (e *Exporter) List(ctx context.Context, tenantID string) ([]BlobInfo, error) {
	t, err := e.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return e.store.List(ctx, keyPrefix+tenantSegment(t)+"/")
}

// Read descomprime y decodifica un archivo.
func (e *Exporter) Read(ctx context.Context, key string) (*Document, error) {
	rc, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	zr, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("leer archivo: %w", err)
	}
	defer zr.Close()
	var doc Document
	if err := json.NewDecoder(zr).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decodificar archivo: %w", err)
	}
	return &doc, nil
}

func (e *Exporter) allItems(ctx context.Context, tenantID string) ([]*entity.StockItem, error) {
	filter := repository.StockItemFilter{TenantID: tenantID}
	out := []*entity.StockItem{}
	for offset := 0; ; offset += pageSize {
		page, err := e.items.List(ctx, filter, pageSize, offset)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}

func archiveKey(t *entity.Tenant, at time.Time) string {
	return fmt.Sprintf("%s%s/%s.json.gz", keyPrefix, tenantSegment(t), at.Format("20060102T150405.000Z"))
}

func tenantSegment(t *entity.Tenant) string {
	if t.Code != "" {
		return strings.ToLower(t.Code)
	}
	return t.ID
}
