package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDelivery(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Delivery("ok", 30)
	m.Delivery("ok", 12)
	m.Delivery("rejected", 0)

	if got := testutil.ToFloat64(m.deliveries.WithLabelValues("ok")); got != 2 {
		t.Fatalf("ok deliveries: %v", got)
	}
	if got := testutil.ToFloat64(m.deliveries.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("rejected deliveries: %v", got)
	}
	if got := testutil.ToFloat64(m.units); got != 42 {
		t.Fatalf("units: %v", got)
	}
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/materials/{ref}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, p := range []string{"/materials/a", "/materials/b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if n := testutil.CollectAndCount(m.requests); n != 1 {
		t.Fatalf("expected one series, got %d", n)
	}
}
