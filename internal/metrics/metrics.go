package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics agrupa los colectores de Prometheus del servicio
type Metrics struct {
	ClientOperations *prometheus.CounterVec
	CountryLookups   *prometheus.CounterVec
	HTTPRequests     *prometheus.HistogramVec
	RateLimited      prometheus.Counter
}

// New crea y registra los colectores en el registerer indicado
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ClientOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "client_service_operations_total",
			Help: "Client lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		CountryLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "client_service_country_lookups_total",
			Help: "Country resolver lookups by outcome",
		}, []string{"outcome"}),
		HTTPRequests: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "client_service_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "client_service_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// ObserveOperation cuenta una operación del ciclo de vida
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.ClientOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveLookup cuenta una consulta al resolver de países
func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil {
		return
	}
	m.CountryLookups.WithLabelValues(outcome).Inc()
}

// ObserveRequest registra la duración de una petición HTTP
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// IncrementRateLimited cuenta una petición rechazada por rate limiting
func (m *Metrics) IncrementRateLimited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}
