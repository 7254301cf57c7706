package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/pothole-service/internal/config"
	"github.com/roadwatch/pothole-service/internal/detector"
	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/repository/sqlite"
)

// stubDetector returns a canned result so orchestration can be tested
// without an inference sidecar.
type stubDetector struct {
	result *detector.Result
	err    error
}

func (s *stubDetector) Detect(ctx context.Context, imagePath string) (*detector.Result, error) {
	return s.result, s.err
}

func (s *stubDetector) Stats() detector.Stats {
	return detector.Stats{ModelLoaded: true, DetectorType: "stub"}
}

func uploadConfig(t *testing.T) config.UploadConfig {
	t.Helper()
	return config.UploadConfig{
		Dir:               t.TempDir(),
		MaxBytes:          16 * 1024 * 1024,
		AllowedExtensions: []string{"png", "jpg", "jpeg", "gif", "webp"},
		DownloadTimeout:   5 * time.Second,
	}
}

func newDetectionService(t *testing.T, det detector.Detector) (*DetectionService, *sqlx.DB) {
	t.Helper()

	db, err := sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	svc := NewDetectionService(det, sqlite.NewPotholeRepository(db), nil, uploadConfig(t))
	return svc, db
}

func seedUser(t *testing.T, db *sqlx.DB) string {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	user := &domain.User{
		UserID:       uuid.NewString(),
		Email:        uuid.NewString()[:8] + "@example.com",
		Username:     "reporter_" + uuid.NewString()[:8],
		Role:         domain.UserRoleUser,
		IsActive:     true,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	require.NoError(t, sqlite.NewUserRepository(db).Create(context.Background(), user))
	return user.UserID
}

func TestAllowedFile(t *testing.T) {
	svc, _ := newDetectionService(t, &stubDetector{})

	assert.True(t, svc.AllowedFile("road.jpg"))
	assert.True(t, svc.AllowedFile("ROAD.PNG"))
	assert.True(t, svc.AllowedFile("a.b.webp"))
	assert.False(t, svc.AllowedFile("road.bmp"))
	assert.False(t, svc.AllowedFile("road"))
	assert.False(t, svc.AllowedFile(""))
}

func TestSaveUploadRejectsBadExtension(t *testing.T) {
	svc, _ := newDetectionService(t, &stubDetector{})

	_, err := svc.SaveUpload("notes.txt", []byte("hi"))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	path, err := svc.SaveUpload("road.jpg", []byte("fake image bytes"))
	require.NoError(t, err)
	defer svc.Cleanup(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake image bytes"), data)
}

func TestDecodeBase64(t *testing.T) {
	svc, _ := newDetectionService(t, &stubDetector{})

	encoded := base64.StdEncoding.EncodeToString([]byte("image bytes"))

	// Bare payloads and data URLs both decode.
	path, err := svc.DecodeBase64(encoded)
	require.NoError(t, err)
	svc.Cleanup(path)

	path, err = svc.DecodeBase64("data:image/png;base64," + encoded)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image bytes"), data)
	svc.Cleanup(path)

	_, err = svc.DecodeBase64("%%% not base64 %%%")
	assert.ErrorIs(t, err, ErrInvalidBase64)
}

func TestFetchURLValidation(t *testing.T) {
	svc, _ := newDetectionService(t, &stubDetector{})
	ctx := context.Background()

	_, err := svc.FetchURL(ctx, "ftp://example.com/road.jpg")
	assert.ErrorIs(t, err, ErrInvalidImageURL)

	_, err = svc.FetchURL(ctx, "https://example.com/page.html")
	assert.ErrorIs(t, err, ErrInvalidImageURL)
}

func TestFetchURLChecksContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	svc, _ := newDetectionService(t, &stubDetector{})

	_, err := svc.FetchURL(context.Background(), srv.URL+"/road.jpg")
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestFetchURLDownloadsImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	svc, _ := newDetectionService(t, &stubDetector{})

	path, err := svc.FetchURL(context.Background(), srv.URL+"/road.jpg")
	require.NoError(t, err)
	defer svc.Cleanup(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), data)
}

func detections() []domain.Detection {
	return []domain.Detection{
		{BBox: domain.BBox{0, 0, 100, 100}, Confidence: 0.95, Class: "pothole"},
		{BBox: domain.BBox{0, 0, 10, 10}, Confidence: 0.3, Class: "pothole"},
	}
}

func TestDetectPersistsGeolocatedBatch(t *testing.T) {
	det := &stubDetector{result: &detector.Result{
		Detections:      detections(),
		ImageSize:       domain.ImageSize{Width: 640, Height: 480},
		ModelUsed:       "yolo_best.pt",
		TotalDetections: 2,
		Status:          detector.StatusOK,
		AnnotatedImage:  "data:image/jpeg;base64,QW5ub3RhdGVk",
	}}
	svc, db := newDetectionService(t, det)
	userID := seedUser(t, db)

	location := &domain.Location{Latitude: 40.0, Longitude: -74.0}
	result, err := svc.Detect(context.Background(), "unused.jpg", userID, location, time.Now().UTC())
	require.NoError(t, err)

	assert.Empty(t, result.Warning)
	assert.NotEmpty(t, result.SessionID)
	// The annotated image flows through untouched for report generation.
	assert.Equal(t, "data:image/jpeg;base64,QW5ub3RhdGVk", result.AnnotatedImage)
	require.Len(t, result.Detections, 2)

	// Enrichment attaches severity and the request location.
	assert.Equal(t, domain.SeverityHigh, result.Detections[0].Severity.Level)
	assert.Equal(t, domain.SeverityLow, result.Detections[1].Severity.Level)
	assert.Equal(t, location, result.Detections[0].Location)
	assert.NotEmpty(t, result.Detections[0].Timestamp)

	var potholeCount, sessionCount int
	require.NoError(t, db.Get(&potholeCount, `SELECT COUNT(*) FROM potholes`))
	require.NoError(t, db.Get(&sessionCount, `SELECT COUNT(*) FROM detection_sessions`))
	assert.Equal(t, 2, potholeCount)
	assert.Equal(t, 1, sessionCount)
}

func TestDetectWithoutLocationSkipsPersistence(t *testing.T) {
	det := &stubDetector{result: &detector.Result{
		Detections:      detections(),
		TotalDetections: 2,
		Status:          detector.StatusOK,
	}}
	svc, db := newDetectionService(t, det)
	userID := seedUser(t, db)

	result, err := svc.Detect(context.Background(), "unused.jpg", userID, nil, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, result.SessionID)
	assert.Empty(t, result.Warning)

	var potholeCount int
	require.NoError(t, db.Get(&potholeCount, `SELECT COUNT(*) FROM potholes`))
	assert.Zero(t, potholeCount)
}

func TestDetectPersistenceFailureIsAWarning(t *testing.T) {
	det := &stubDetector{result: &detector.Result{
		Detections:      detections(),
		TotalDetections: 2,
		Status:          detector.StatusOK,
	}}
	svc, _ := newDetectionService(t, det)

	// The user does not exist, so the batch save fails; the detections still
	// come back with a warning instead of an error.
	location := &domain.Location{Latitude: 40.0, Longitude: -74.0}
	result, err := svc.Detect(context.Background(), "unused.jpg", uuid.NewString(), location, time.Now().UTC())
	require.NoError(t, err)
	assert.NotEmpty(t, result.Warning)
	assert.Empty(t, result.SessionID)
	assert.Len(t, result.Detections, 2)
}

func TestDetectWithNoModel(t *testing.T) {
	svc, db := newDetectionService(t, detector.NewDisabled())
	userID := seedUser(t, db)

	location := &domain.Location{Latitude: 40.0, Longitude: -74.0}
	result, err := svc.Detect(context.Background(), "unused.jpg", userID, location, time.Now().UTC())
	require.NoError(t, err)

	assert.Equal(t, detector.StatusNoModel, result.Status)
	assert.Empty(t, result.Detections)
	assert.Empty(t, result.SessionID)
}
