package services

import (
	"context"
	"testing"
	"time"

	"civicpulse-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Around (19.30, 72.75) one degree of latitude is ~111km, so 0.0001 degrees
// is roughly 11 meters.
const (
	baseLat = 19.30
	baseLng = 72.75
)

func openIssueAt(t *testing.T, repo *fakeIssueRepo, lng, lat float64, category models.IssueCategory, open bool) *models.Issue {
	t.Helper()
	status := models.Submitted
	if !open {
		status = models.Resolved
	}
	issue := &models.Issue{
		ID:        primitive.NewObjectID(),
		Reporter:  primitive.NewObjectID(),
		Title:     "seed",
		Category:  category,
		Location:  models.NewGeoPoint(lng, lat),
		GeoCell:   GeoCell(lng, lat),
		Status:    status,
		Open:      open,
		CreatedAt: time.Now(),
	}
	repo.mu.Lock()
	repo.issues[issue.ID] = *issue
	repo.mu.Unlock()
	return issue
}

func TestHaversineKnownDistance(t *testing.T) {
	// ~11m apart on the latitude axis.
	d := HaversineMeters(baseLng, baseLat, baseLng, baseLat+0.0001)
	assert.InDelta(t, 11.1, d, 0.5)

	// Same point.
	assert.Zero(t, HaversineMeters(baseLng, baseLat, baseLng, baseLat))
}

func TestFindNearbyOpenIssue(t *testing.T) {
	tests := []struct {
		name      string
		offsetLat float64
		category  models.IssueCategory
		open      bool
		wantHit   bool
	}{
		{"within 20m same category", 0.0001, models.Pothole, true, true},
		{"beyond 20m", 0.0004, models.Pothole, true, false},
		{"different category", 0.0001, models.Garbage, true, false},
		{"closed issue ignored", 0.0001, models.Pothole, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeIssueRepo()
			seeded := openIssueAt(t, repo, baseLng, baseLat+tt.offsetLat, tt.category, tt.open)
			index := NewGeoDuplicateIndex(repo)

			got, err := index.FindNearbyOpenIssue(context.Background(),
				models.NewGeoPoint(baseLng, baseLat), models.Pothole, DefaultDuplicateRadiusMeters)
			require.NoError(t, err)

			if tt.wantHit {
				require.NotNil(t, got)
				assert.Equal(t, seeded.ID, got.ID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestFindNearbyReturnsNearest(t *testing.T) {
	repo := newFakeIssueRepo()
	openIssueAt(t, repo, baseLng, baseLat+0.00015, models.Pothole, true)
	nearest := openIssueAt(t, repo, baseLng, baseLat+0.00005, models.Pothole, true)
	index := NewGeoDuplicateIndex(repo)

	got, err := index.FindNearbyOpenIssue(context.Background(),
		models.NewGeoPoint(baseLng, baseLat), models.Pothole, DefaultDuplicateRadiusMeters)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, nearest.ID, got.ID)
}

func TestGeoCellStableAndLocal(t *testing.T) {
	a := GeoCell(baseLng, baseLat)
	b := GeoCell(baseLng, baseLat)
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)

	far := GeoCell(baseLng+1, baseLat+1)
	assert.NotEqual(t, a, far)
}
