package domain

import (
	"context"
	"log/slog"
)

// DefaultMapTopN is the number of most frequent locations placed on the map.
const DefaultMapTopN = 20

// GeoPoint is one map marker: a counted location and where it resolved to.
type GeoPoint struct {
	Location        string  `json:"location"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	Count           int     `json:"count"`
	GeocodedCountry string  `json:"geocoded_country"`
}

// BuildGeoPoints resolves the first topN categories of counts and returns a
// point for each one that resolved. Unknown locations are left off the map.
// If ctx is cancelled the points gathered so far are returned with the error.
func BuildGeoPoints(ctx context.Context, resolver LocationResolver, counts CountTable, topN int, logger *slog.Logger) ([]GeoPoint, error) {
	if resolver == nil {
		return nil, nil
	}

	top := counts.TopN(topN)
	points := make([]GeoPoint, 0, len(top.Rows))
	for _, row := range top.Rows {
		result, err := resolver.Resolve(ctx, row.Category)
		if err != nil {
			return points, err
		}
		if !result.Found {
			logger.Debug("location left off map", "location", row.Category)
			continue
		}
		points = append(points, GeoPoint{
			Location:        row.Category,
			Lat:             result.Lat,
			Lon:             result.Lon,
			Count:           row.Count,
			GeocodedCountry: result.Country,
		})
	}
	return points, nil
}

// GeoPointsSheet renders map points as an export sheet.
func GeoPointsSheet(name string, points []GeoPoint) Sheet {
	rows := make([][]any, len(points))
	for i, p := range points {
		rows[i] = []any{p.Location, p.Lat, p.Lon, p.Count, p.GeocodedCountry}
	}
	return Sheet{
		Name:   name,
		Header: []string{"Ubicación", "Latitud", "Longitud", "Cantidad", "País_Geocodificado"},
		Rows:   rows,
	}
}
