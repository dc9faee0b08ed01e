package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector(t *testing.T) {
	t.Run("Should count cache outcomes per tier", func(t *testing.T) {
		c := NewCollector("test")

		c.RecordHit(TierClient)
		c.RecordHit(TierClient)
		c.RecordMiss(TierServer)
		c.RecordExpirations(TierClient, 3)
		c.SetEntries(TierClient, 42)

		assert.Equal(t, float64(2), testutil.ToFloat64(c.CacheHits.WithLabelValues(TierClient)))
		assert.Equal(t, float64(1), testutil.ToFloat64(c.CacheMisses.WithLabelValues(TierServer)))
		assert.Equal(t, float64(3), testutil.ToFloat64(c.CacheExpirations.WithLabelValues(TierClient)))
		assert.Equal(t, float64(42), testutil.ToFloat64(c.CacheEntries.WithLabelValues(TierClient)))
	})

	t.Run("Should label backend fetches by outcome", func(t *testing.T) {
		c := NewCollector("test")

		c.RecordBackendFetch("travels", nil, time.Millisecond)
		c.RecordBackendFetch("travels", errors.New("down"), time.Millisecond)

		assert.Equal(t, float64(1), testutil.ToFloat64(c.BackendFetches.WithLabelValues("travels", "ok")))
		assert.Equal(t, float64(1), testutil.ToFloat64(c.BackendFetches.WithLabelValues("travels", "error")))
	})

	t.Run("Should allow independent collectors", func(t *testing.T) {
		assert.NotPanics(t, func() {
			NewCollector("a")
			NewCollector("a")
		})
	})

	t.Run("Should ignore calls on a nil collector", func(t *testing.T) {
		var c *Collector

		assert.NotPanics(t, func() {
			c.RecordHit(TierClient)
			c.RecordStale()
			c.RecordHTTP("GET", "/", "200", time.Second)
		})
	})

	t.Run("Should expose metrics over HTTP", func(t *testing.T) {
		c := NewCollector("itravel")
		c.RecordHit(TierServer)

		rec := httptest.NewRecorder()
		c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "itravel_cache_hits_total")
	})
}
