package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware_RequestIDAndMetrics(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.9" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("header id = %q, context id = %q", rec.Header().Get(HeaderRequestID), seen)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 2 || metrics.ErrorResponses != 1 {
		t.Fatalf("metrics = %+v", metrics)
	}
}

func TestGenerateRequestID_Unique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b || len(a) != len("req_")+16 {
		t.Fatalf("ids %q %q", a, b)
	}
}
