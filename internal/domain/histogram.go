package domain

import (
	"math"
	"slices"
)

// DefaultHistogramBins is the bucket count of automatic numeric charts.
const DefaultHistogramBins = 10

// Bucket is one histogram bar. Lower is inclusive; Upper is exclusive except
// on the last bucket.
type Bucket struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram splits values into equal-width buckets spanning their range.
// All-equal values produce a single bucket; no values produce none.
func Histogram(values []float64, bins int) []Bucket {
	if len(values) == 0 {
		return nil
	}
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	lo, hi := slices.Min(values), slices.Max(values)
	if lo == hi {
		return []Bucket{{Lower: lo, Upper: hi, Count: len(values)}}
	}

	// Halved bounds keep the width finite when the range exceeds MaxFloat64.
	halfWidth := (hi/2 - lo/2) / float64(bins)
	buckets := make([]Bucket, bins)
	for i := range buckets {
		buckets[i].Lower = 2 * (lo/2 + float64(i)*halfWidth)
		buckets[i].Upper = 2 * (lo/2 + float64(i+1)*halfWidth)
	}
	buckets[0].Lower = lo
	buckets[bins-1].Upper = hi

	for _, v := range values {
		buckets[bucketIndex((v/2-lo/2)/halfWidth, bins)].Count++
	}
	return buckets
}

func bucketIndex(pos float64, bins int) int {
	switch {
	case math.IsNaN(pos) || pos < 0:
		return 0
	case pos >= float64(bins):
		return bins - 1
	default:
		return int(pos)
	}
}
