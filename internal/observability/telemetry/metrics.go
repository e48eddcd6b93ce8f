package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas do pipeline
	PipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_pipeline_runs_total",
		Help: "Total de execuções do pipeline por caso de uso",
	}, []string{"use_case", "status"})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sigec_pipeline_duration_seconds",
		Help:    "Duração das execuções do pipeline",
		Buckets: prometheus.DefBuckets,
	}, []string{"use_case"})

	DocumentsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_documents_fetched_total",
		Help: "Total de documentos lidos por coleção",
	}, []string{"collection"})

	FetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_fetch_errors_total",
		Help: "Total de falhas de leitura por coleção",
	}, []string{"collection"})

	// Métricas de infraestrutura
	DatabaseLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sigec_database_latency_seconds",
		Help:    "Latência de queries no banco",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend", "collection"})

	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_cache_requests_total",
		Help: "Total de consultas ao cache de documentos",
	}, []string{"collection", "result"})

	CacheInvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sigec_cache_invalidations_total",
		Help: "Total de invalidações de cache recebidas",
	}, []string{"collection"})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sigec_circuit_breaker_state",
		Help: "Estado do circuit breaker (0=fechado, 1=meio-aberto, 2=aberto)",
	}, []string{"name"})
)
