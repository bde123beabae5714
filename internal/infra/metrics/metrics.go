package metrics

import (
	"net/http"
	"strconv"
	"time"

	httpx "github.com/Spok95/factory/internal/infra/http"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	deliveries *prometheus.CounterVec
	units      prometheus.Counter
	requests   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "factory",
			Name:      "deliveries_total",
			Help:      "Deliveries by result: ok, rejected, failed.",
		}, []string{"result"}),
		units: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "factory",
			Name:      "delivered_units_total",
			Help:      "Units moved into warehouses by committed deliveries.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "factory",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.deliveries, m.units, m.requests)
	return m
}

// Delivery реализует delivery.Recorder.
func (m *Metrics) Delivery(result string, units int64) {
	m.deliveries.WithLabelValues(result).Inc()
	if units > 0 {
		m.units.Add(float64(units))
	}
}

// Middleware пишет длительность запроса с шаблоном маршрута mux, чтобы
// id в пути не раздували кардинальность.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := httpx.NewStatusWriter(w)
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.Status)).
			Observe(time.Since(start).Seconds())
	})
}
