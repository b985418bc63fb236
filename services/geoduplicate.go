package services

import (
	"context"
	"math"

	"civicpulse-be/models"

	"github.com/mmcloughlin/geohash"
)

// DefaultDuplicateRadiusMeters is the radius within which an open report of
// the same category counts as a duplicate.
const DefaultDuplicateRadiusMeters = 20.0

// geoCellPrecision gives cells of roughly 38m x 19m, the bucket for the
// open-issue uniqueness constraint that backs the duplicate-race guard.
const geoCellPrecision = 8

// geoCellFinePrecision refines the key when the coarse cell is already held
// by an open issue that sits beyond the duplicate radius.
const geoCellFinePrecision = 9

const earthRadiusMeters = 6371000.0

// GeoCell returns the geohash bucket for a coordinate.
func GeoCell(lng, lat float64) string {
	return geohash.EncodeWithPrecision(lat, lng, geoCellPrecision)
}

func fineGeoCell(lng, lat float64) string {
	return geohash.EncodeWithPrecision(lat, lng, geoCellFinePrecision)
}

// HaversineMeters is the great-circle distance between two coordinates.
func HaversineMeters(lng1, lat1, lng2, lat2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// GeoDuplicateIndex answers "is there already an open report for this problem
// here". It is read-only; the intake orchestrator decides whether to merge or
// reject. The spatial narrowing is done by the store's 2dsphere index through
// the repository; distances are re-verified here.
type GeoDuplicateIndex struct {
	Issues IssueRepository
}

func NewGeoDuplicateIndex(issues IssueRepository) *GeoDuplicateIndex {
	return &GeoDuplicateIndex{Issues: issues}
}

// FindNearbyOpenIssue returns the nearest open issue of the same category
// within radiusMeters of the point, or nil when there is none.
func (g *GeoDuplicateIndex) FindNearbyOpenIssue(ctx context.Context, point models.GeoPoint, category models.IssueCategory, radiusMeters float64) (*models.Issue, error) {
	if radiusMeters <= 0 {
		radiusMeters = DefaultDuplicateRadiusMeters
	}

	candidates, err := g.Issues.FindNearbyOpen(ctx, point.Longitude(), point.Latitude(), radiusMeters, category)
	if err != nil {
		return nil, err
	}

	var nearest *models.Issue
	best := radiusMeters
	for i := range candidates {
		c := &candidates[i]
		d := HaversineMeters(point.Longitude(), point.Latitude(), c.Location.Longitude(), c.Location.Latitude())
		if d <= best {
			best = d
			nearest = c
		}
	}
	return nearest, nil
}
