//go:build nominatim

package nominatim

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/hunting-permits-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Nominatim API and need a contact User-Agent in
// NOMINATIM_USER_AGENT, as its usage policy requires.
// Run with: go test -tags=nominatim ./internal/adapter/nominatim/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	ua := os.Getenv("NOMINATIM_USER_AGENT")
	if ua == "" {
		t.Fatal("NOMINATIM_USER_AGENT must be set to run smoke tests")
	}
	return NewClient(DefaultBaseURL, ua, "es", 10*time.Second, observability.NewMetricsForTesting(), discardLogger())
}

func TestSmoke_Geocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.Geocode(context.Background(), "Argentina")
	require.NoError(t, err)

	assert.InDelta(t, -34.9, result.Lat, 10, "lat should be in Argentina")
	assert.InDelta(t, -64.9, result.Lon, 10, "lon should be in Argentina")
	assert.Equal(t, "Argentina", result.Country)
}

func TestSmoke_Geocode_SpanishNames(t *testing.T) {
	c := smokeClient(t)

	result, err := c.Geocode(context.Background(), "Germany")
	require.NoError(t, err)

	assert.Equal(t, "Alemania", result.Country)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, DefaultDelay, clockwork.NewRealClock(), observability.NewMetricsForTesting(), discardLogger())

	r1, err := cached.Resolve(context.Background(), "Chile")
	require.NoError(t, err)
	assert.True(t, r1.Found)

	r2, err := cached.Resolve(context.Background(), "Chile")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
