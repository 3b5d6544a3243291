package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/books":       "/books",
		"/books/42":    "/books/{id}",
		"/authors/7":   "/authors/{id}",
		"/authors/abc": "/authors/abc",
		"/healthz":     "/healthz",
		"/":            "/",
	}
	for path, want := range cases {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

func TestInstrument(t *testing.T) {
	handler := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	before := promtest.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/books/{id}", "404"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books/99", nil))

	after := promtest.ToFloat64(requestsTotal.WithLabelValues(http.MethodGet, "/books/{id}", "404"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, float64(0), promtest.ToFloat64(requestsInFlight))
}
