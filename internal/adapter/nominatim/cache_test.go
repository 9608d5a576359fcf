package nominatim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls   atomic.Int32
	result  domain.GeoResult
	err     error
	panics  bool
	started chan struct{}
	release chan struct{}
}

func (m *countingGeocoder) Geocode(ctx context.Context, _ string) (domain.GeoResult, error) {
	m.calls.Add(1)
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	if m.panics {
		panic("boom")
	}
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCache(inner domain.Geocoder, metrics *observability.Metrics) *CachedGeocoder {
	return NewCachedGeocoder(inner, 0, clockwork.NewFakeClock(), metrics, discardLogger())
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeoResult{Lat: -34.6, Lon: -58.4, Country: "Argentina", Found: true}}
	metrics := observability.NewMetricsForTesting()
	cached := newTestCache(inner, metrics)

	r1, err := cached.Resolve(context.Background(), "Argentina")
	require.NoError(t, err)
	r2, err := cached.Resolve(context.Background(), "Argentina")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, "Argentina", r1.Country)
	assert.True(t, r1.Found)
	assert.Equal(t, int32(1), inner.calls.Load(), "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("miss")))
	assert.Equal(t, 1, cached.Len())
}

func TestCachedGeocoder_MissingCountryDefaults(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeoResult{Lat: 1, Lon: 2}}
	cached := newTestCache(inner, observability.NewMetricsForTesting())

	r, err := cached.Resolve(context.Background(), "Somewhere")

	require.NoError(t, err)
	assert.Equal(t, domain.UnknownCountry, r.Country)
	assert.True(t, r.Found)
}

func TestCachedGeocoder_FailuresCached(t *testing.T) {
	tests := []struct {
		name    string
		inner   *countingGeocoder
		outcome string
	}{
		{"not found", &countingGeocoder{err: domain.ErrLocationNotFound}, "not_found"},
		{"provider error", &countingGeocoder{err: errors.New("status 503")}, "error"},
		{"timeout", &countingGeocoder{err: context.DeadlineExceeded}, "error"},
		{"panic", &countingGeocoder{panics: true}, "panic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetricsForTesting()
			cached := newTestCache(tt.inner, metrics)

			for range 3 {
				r, err := cached.Resolve(context.Background(), "Atlantis")
				require.NoError(t, err)
				assert.Equal(t, domain.UnknownLocation, r)
			}

			assert.Equal(t, int32(1), tt.inner.calls.Load(), "failures are not retried")
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues(tt.outcome)))
		})
	}
}

func TestCachedGeocoder_DifferentKeysMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeoResult{Country: "Chile", Found: true}}
	cached := newTestCache(inner, observability.NewMetricsForTesting())

	_, _ = cached.Resolve(context.Background(), "Chile")
	_, _ = cached.Resolve(context.Background(), "chile")

	assert.Equal(t, int32(2), inner.calls.Load(), "names are cached exactly as given")
}

func TestCachedGeocoder_WaitsBeforeLookup(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeoResult{Country: "Perú", Found: true}}
	clock := clockwork.NewFakeClock()
	cached := NewCachedGeocoder(inner, DefaultDelay, clock, observability.NewMetricsForTesting(), discardLogger())

	done := make(chan domain.GeoResult, 1)
	go func() {
		r, _ := cached.Resolve(context.Background(), "Perú")
		done <- r
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, int32(0), inner.calls.Load(), "no lookup before the delay elapses")

	clock.Advance(DefaultDelay)

	select {
	case r := <-done:
		assert.Equal(t, "Perú", r.Country)
	case <-time.After(5 * time.Second):
		t.Fatal("resolve did not finish after the delay")
	}
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestCachedGeocoder_CancelDuringDelayNotCached(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeoResult{Country: "Chile", Found: true}}
	clock := clockwork.NewFakeClock()
	cached := NewCachedGeocoder(inner, DefaultDelay, clock, observability.NewMetricsForTesting(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := cached.Resolve(ctx, "Chile")
		errc <- err
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	cancel()

	require.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, int32(0), inner.calls.Load())
	assert.Equal(t, 0, cached.Len(), "cancellation is not cached")
}

func TestCachedGeocoder_ConcurrentCallsShareLookup(t *testing.T) {
	inner := &countingGeocoder{
		result:  domain.GeoResult{Country: "Uruguay", Found: true},
		started: make(chan struct{}, 10),
		release: make(chan struct{}),
	}
	cached := newTestCache(inner, observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	results := make([]domain.GeoResult, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = cached.Resolve(context.Background(), "Uruguay")
		}()
	}

	<-inner.started
	close(inner.release)
	wg.Wait()

	assert.Equal(t, int32(1), inner.calls.Load())
	for _, r := range results {
		assert.Equal(t, "Uruguay", r.Country)
	}
}
