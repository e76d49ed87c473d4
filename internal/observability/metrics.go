// Package observability expone las métricas Prometheus y el tracing OpenTelemetry
// del núcleo de contadores y libro de stock.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SequenceAllocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequence_allocations_total",
		Help: "Total de números de secuencia asignados",
	}, []string{"category"})

	SequenceConflictRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sequence_conflict_retries_total",
		Help: "Reintentos del asignador por conflicto de concurrencia",
	}, []string{"category"})

	SequenceAllocationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sequence_allocation_latency_seconds",
		Help:    "Latencia de asignación de secuencia (incluye reintentos)",
		Buckets: prometheus.DefBuckets,
	})

	TenantsRegisteredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenants_registered_total",
		Help: "Tenants registrados por categoría",
	}, []string{"category"})

	BackfillAssignedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backfill_codes_assigned_total",
		Help: "Códigos asignados por el backfill",
	}, []string{"category"})

	StockMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Movimientos de stock confirmados por tipo",
	}, []string{"type"})

	StockMovementsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_failed_total",
		Help: "Movimientos de stock rechazados por motivo",
	}, []string{"reason"})

	StockMovementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_movement_latency_seconds",
		Help:    "Latencia de la transacción del libro de stock",
		Buckets: prometheus.DefBuckets,
	})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_low_level_alerts_total",
		Help: "Alertas de stock bajo emitidas",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de las peticiones HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total de peticiones HTTP",
	}, []string{"method", "path", "status"})
)
