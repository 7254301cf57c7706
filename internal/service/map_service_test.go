package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/repository"
	"github.com/roadwatch/pothole-service/internal/repository/sqlite"
)

func newMapService(t *testing.T) (*MapService, *sqlx.DB) {
	t.Helper()

	db, err := sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return NewMapService(sqlite.NewPotholeRepository(db), nil), db
}

func seedPotholes(t *testing.T, db *sqlx.DB, severities []string) {
	t.Helper()

	userID := seedUser(t, db)
	now := time.Now().UTC().Truncate(time.Second)
	sessionID := uuid.NewString()

	batch := &repository.SaveBatch{
		Session: domain.DetectionSession{
			SessionID:     sessionID,
			UserID:        userID,
			TotalPotholes: len(severities),
			AreaCoverage:  "Unknown",
			CreatedAt:     now,
		},
	}
	for i, sev := range severities {
		batch.Potholes = append(batch.Potholes, domain.Pothole{
			PotholeID:     uuid.NewString(),
			UserID:        userID,
			Latitude:      40.0 + float64(i)*0.01,
			Longitude:     -74.0,
			Severity:      sev,
			Confidence:    0.9,
			Size:          2500,
			Timestamp:     now.Add(time.Duration(i) * time.Minute),
			DetectionJSON: "{}",
			SessionID:     sessionID,
		})
	}

	require.NoError(t, sqlite.NewPotholeRepository(db).SaveBatch(context.Background(), batch))
}

func TestRecentClampsLimit(t *testing.T) {
	svc, db := newMapService(t)
	seedPotholes(t, db, []string{domain.SeverityLow, domain.SeverityLow, domain.SeverityLow})
	ctx := context.Background()

	// Zero falls back to the default.
	potholes, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, potholes, 3)

	potholes, err = svc.Recent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, potholes, 2)

	// An absurd limit is capped rather than rejected.
	potholes, err = svc.Recent(ctx, 1_000_000)
	require.NoError(t, err)
	assert.Len(t, potholes, 3)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	svc, db := newMapService(t)
	seedPotholes(t, db, []string{domain.SeverityLow, domain.SeverityHigh})

	potholes, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, potholes, 2)
	assert.Equal(t, domain.SeverityHigh, potholes[0].Severity)
	assert.True(t, !potholes[0].Timestamp.Before(potholes[1].Timestamp))
}

func TestStatisticsRoundsAverage(t *testing.T) {
	svc, db := newMapService(t)
	// Weights 3, 1, 1 average to 1.666..., reported as 1.67.
	seedPotholes(t, db, []string{domain.SeverityHigh, domain.SeverityLow, domain.SeverityLow})

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPotholes)
	assert.InDelta(t, 1.67, stats.AvgSeverity, 1e-9)
	assert.Equal(t, 1, stats.HighSeverity)
	assert.Equal(t, 2, stats.LowSeverity)
}

func TestHeatmapWithoutCache(t *testing.T) {
	svc, db := newMapService(t)
	seedPotholes(t, db, []string{domain.SeverityHigh, domain.SeverityMedium})

	points, err := svc.Heatmap(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
}

func TestGeoJSONShape(t *testing.T) {
	svc, db := newMapService(t)
	seedPotholes(t, db, []string{domain.SeverityHigh})

	collection, err := svc.GeoJSON(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FeatureCollection", collection.Type)
	require.Len(t, collection.Features, 1)

	feature := collection.Features[0]
	assert.Equal(t, "Feature", feature.Type)
	assert.Equal(t, "Point", feature.Geometry.Type)
	// GeoJSON coordinates are [lng, lat].
	assert.Equal(t, -74.0, feature.Geometry.Coordinates[0])
	assert.Equal(t, 40.0, feature.Geometry.Coordinates[1])
	assert.Equal(t, domain.SeverityHigh, feature.Properties["severity"])
}

func TestGeoJSONEmpty(t *testing.T) {
	svc, _ := newMapService(t)

	collection, err := svc.GeoJSON(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "FeatureCollection", collection.Type)
	assert.Empty(t, collection.Features)
}
