package nominatim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/domain"
	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// DefaultDelay is the pause before every provider lookup.
const DefaultDelay = 1200 * time.Millisecond

// CachedGeocoder implements domain.LocationResolver on top of a Geocoder.
// Every answer, failures included, is kept for the process lifetime, so a
// name is looked up at most once. Only context cancellation is not cached.
type CachedGeocoder struct {
	inner   domain.Geocoder
	store   *gocache.Cache
	flights singleflight.Group
	clock   clockwork.Clock
	delay   time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedGeocoder creates a caching resolver around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, delay time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *CachedGeocoder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedGeocoder{
		inner:   inner,
		store:   gocache.New(gocache.NoExpiration, 0),
		clock:   clock,
		delay:   delay,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve returns the cached result for name, looking it up on first use.
// Concurrent calls for the same name share one lookup.
func (c *CachedGeocoder) Resolve(ctx context.Context, name string) (domain.GeoResult, error) {
	if result, ok := c.cached(name); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		c.logger.Debug("geocode cache hit", "location", name)
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	for {
		ch := c.flights.DoChan(name, func() (any, error) {
			return c.lookup(ctx, name)
		})
		select {
		case <-ctx.Done():
			return domain.GeoResult{}, ctx.Err()
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(domain.GeoResult), nil
			}
			// The shared lookup belonged to a caller that went away; retry with ours.
			if isContextErr(res.Err) && ctx.Err() == nil {
				continue
			}
			return domain.GeoResult{}, res.Err
		}
	}
}

// Len returns the number of cached names.
func (c *CachedGeocoder) Len() int {
	return c.store.ItemCount()
}

func (c *CachedGeocoder) cached(name string) (domain.GeoResult, bool) {
	v, ok := c.store.Get(name)
	if !ok {
		return domain.GeoResult{}, false
	}
	return v.(domain.GeoResult), true
}

func (c *CachedGeocoder) lookup(ctx context.Context, name string) (domain.GeoResult, error) {
	if result, ok := c.cached(name); ok {
		return result, nil
	}

	if c.delay > 0 {
		select {
		case <-c.clock.After(c.delay):
		case <-ctx.Done():
			return domain.GeoResult{}, ctx.Err()
		}
	}

	result, err := c.geocode(ctx, name)
	switch {
	case err == nil:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
		if result.Country == "" {
			result.Country = domain.UnknownCountry
		}
		result.Found = true
	case ctx.Err() != nil:
		return domain.GeoResult{}, ctx.Err()
	case errors.Is(err, domain.ErrLocationNotFound):
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		c.logger.Info("location not found", "location", name)
		result = domain.UnknownLocation
	case errors.Is(err, errProviderPanic):
		c.metrics.GeocodeRequests.WithLabelValues("panic").Inc()
		c.logger.Error("geocoder panicked", "location", name, "error", err)
		result = domain.UnknownLocation
	default:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("geocoding failed", "location", name, "error", err)
		result = domain.UnknownLocation
	}

	c.store.Set(name, result, gocache.NoExpiration)
	return result, nil
}

var errProviderPanic = errors.New("geocoder panic")

// geocode calls the provider, turning a panic into an error.
func (c *CachedGeocoder) geocode(ctx context.Context, name string) (result domain.GeoResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errProviderPanic, r)
		}
	}()
	return c.inner.Geocode(ctx, name)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
