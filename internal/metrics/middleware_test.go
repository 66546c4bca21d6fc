package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/quota", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/v1/quota", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/quota", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Post("/v1/admissions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	tests := []struct {
		method         string
		path           string
		expectedStatus string
	}{
		{"POST", "/v1/admissions", "402"},
		{"GET", "/missing", "404"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s %s status %s >= 1, got %f",
					tc.method, tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestRegisterAdmissionMetrics_Idempotent(t *testing.T) {
	// A second call must not panic on duplicate registration.
	RegisterAdmissionMetrics()
	RegisterAdmissionMetrics()

	AdmissionDecisionsTotal.WithLabelValues("admitted", "tokens_250k").Inc()
	val := testutil.ToFloat64(AdmissionDecisionsTotal.WithLabelValues("admitted", "tokens_250k"))
	if val < 1 {
		t.Errorf("expected admission_decisions_total >= 1, got %f", val)
	}
}

func TestBucketTokensRemaining_Gauge(t *testing.T) {
	BucketTokensRemaining.WithLabelValues("tokens_250k").Set(249_900)

	val := testutil.ToFloat64(BucketTokensRemaining.WithLabelValues("tokens_250k"))
	if val != 249_900 {
		t.Errorf("gauge = %f, want 249900", val)
	}
}
