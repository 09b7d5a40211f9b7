// Package geo abstracts the external geo provider used to enrich reports:
// reverse geocoding of shared coordinates and nearby-landmark search.
package geo

import "context"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StructuredAddress is the prefecture/city/sub-area decomposition persisted
// alongside the flat address string. AreaKey is the concatenation used for
// grouping reports by locality.
type StructuredAddress struct {
	Prefecture string `json:"prefecture"`
	City       string `json:"city"`
	SubArea    string `json:"subArea"`
	AreaKey    string `json:"areaKey"`
}

// ReverseResult is the outcome of reverse geocoding one point.
type ReverseResult struct {
	Address    string
	Structured StructuredAddress
}

// Landmark is a nearby named place offered to the reporter as a hint.
type Landmark struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Point    Point   `json:"point"`
	Distance float64 `json:"distanceMeters"`
}

// Provider is the geo enrichment dependency of the conversation pipeline.
type Provider interface {
	ReverseGeocode(ctx context.Context, p Point) (ReverseResult, error)
	NearbyLandmarks(ctx context.Context, p Point, limit int) ([]Landmark, error)
}
