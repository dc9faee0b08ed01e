package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	pkgerrors "itravel/pkg/errors"
	"itravel/pkg/observability"
)

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("Should generate an ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	})

	t.Run("Should keep an incoming ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})
}

func TestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewCollector("test")

	router := chi.NewRouter()
	router.Use(RequestID)
	router.Use(Logger(zap.New(core), metrics))
	router.Get("/api/cache/{type}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cache/search", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	entries := logs.FilterMessage("HTTP Request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/api/cache/search", fields["path"])
		assert.Equal(t, int64(http.StatusTeapot), fields["status"])
		assert.NotEmpty(t, fields["requestID"])
	}
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.HTTPRequests))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/api/cache/{type}", "418")))
}

func TestRateLimiter(t *testing.T) {
	t.Run("Should limit per client", func(t *testing.T) {
		limiter := NewRateLimiter(1, 2)
		now := time.Unix(1000, 0)
		limiter.now = func() time.Time { return now }

		assert.True(t, limiter.Allow("1.1.1.1"))
		assert.True(t, limiter.Allow("1.1.1.1"))
		assert.False(t, limiter.Allow("1.1.1.1"))
		assert.True(t, limiter.Allow("2.2.2.2"))

		now = now.Add(time.Second)
		assert.True(t, limiter.Allow("1.1.1.1"))
	})

	t.Run("Should be disabled with zero rate", func(t *testing.T) {
		limiter := NewRateLimiter(0, 0)
		for i := 0; i < 100; i++ {
			assert.True(t, limiter.Allow("1.1.1.1"))
		}
	})

	t.Run("Should answer 429 over the limit", func(t *testing.T) {
		limiter := NewRateLimiter(1, 1)
		handler := limiter.Middleware(pkgerrors.NewErrorHandler(nil, false))(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusTooManyRequests, second.Code)
		assert.Equal(t, "1", second.Header().Get("Retry-After"))
	})
}
