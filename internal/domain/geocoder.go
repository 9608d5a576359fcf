package domain

import "context"

// UnknownCountry is the country reported when a provider omits it or a
// lookup fails.
const UnknownCountry = "Desconocido"

// GeoResult is the outcome of resolving a place name. Found is false for the
// unknown sentinel, which carries no coordinates.
type GeoResult struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	Found   bool    `json:"found"`
}

// UnknownLocation is the sentinel for names that could not be resolved.
var UnknownLocation = GeoResult{Country: UnknownCountry}

// Geocoder looks a place name up with an external provider. It returns
// ErrLocationNotFound when the provider has no match.
type Geocoder interface {
	Geocode(ctx context.Context, name string) (GeoResult, error)
}

// LocationResolver resolves place names without surfacing provider failures.
// The only error it returns is the context's.
type LocationResolver interface {
	Resolve(ctx context.Context, name string) (GeoResult, error)
}
