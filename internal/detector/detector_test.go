package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/pothole-service/internal/config"
)

func TestNewSelectsVariant(t *testing.T) {
	det, err := New(config.DetectorConfig{Mode: "disabled"})
	require.NoError(t, err)
	assert.IsType(t, &Disabled{}, det)

	det, err = New(config.DetectorConfig{Mode: ""})
	require.NoError(t, err)
	assert.IsType(t, &Disabled{}, det)

	det, err = New(config.DetectorConfig{Mode: "remote"})
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, det)

	_, err = New(config.DetectorConfig{Mode: "bogus"})
	require.Error(t, err)
}

func TestDisabledReportsNoModel(t *testing.T) {
	det := NewDisabled()

	result, err := det.Detect(context.Background(), "irrelevant.jpg")
	require.NoError(t, err)
	assert.Empty(t, result.Detections)
	assert.Zero(t, result.TotalDetections)
	assert.Equal(t, StatusNoModel, result.Status)
	assert.Equal(t, "none", result.ModelUsed)
	assert.Empty(t, result.AnnotatedImage)

	stats := det.Stats()
	assert.False(t, stats.ModelLoaded)
	assert.Zero(t, stats.TotalDetections)
}

func writeTestImage(t *testing.T) string {
	t.Helper()

	// Minimal valid 1x1 GIF.
	gif := []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x00\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

	path := filepath.Join(t.TempDir(), "pothole.gif")
	require.NoError(t, os.WriteFile(path, gif, 0o644))
	return path
}

func TestRemoteFiltersLowConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("image")
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"detections": [
				{"bbox": [10, 10, 50, 50], "confidence": 0.9, "class": "pothole", "class_id": 0},
				{"bbox": [0, 0, 5, 5], "confidence": 0.1, "class": "pothole", "class_id": 0},
				{"bbox": [1, 2, 3], "confidence": 0.8, "class": "pothole", "class_id": 0},
				{"bbox": [20, 20, 30, 30], "confidence": 0.5, "class": "", "class_id": 0}
			],
			"annotated_image": "data:image/jpeg;base64,QW5ub3RhdGVk"
		}`))
	}))
	defer srv.Close()

	det := NewRemote(config.DetectorConfig{
		Mode:         "remote",
		ModelPath:    "model/best.pt",
		InferenceURL: srv.URL,
		Timeout:      5 * time.Second,
	})

	result, err := det.Detect(context.Background(), writeTestImage(t))
	require.NoError(t, err)

	// Low confidence and malformed boxes are dropped; an empty class falls
	// back to "pothole".
	require.Len(t, result.Detections, 2)
	assert.Equal(t, 0.9, result.Detections[0].Confidence)
	assert.Equal(t, "pothole", result.Detections[1].Class)
	assert.Equal(t, 2, result.TotalDetections)
	assert.Equal(t, StatusOK, result.Status)
	assert.Equal(t, "yolo_best.pt", result.ModelUsed)
	assert.Equal(t, "data:image/jpeg;base64,QW5ub3RhdGVk", result.AnnotatedImage)
	assert.Equal(t, 1, result.ImageSize.Width)
	assert.Equal(t, 1, result.ImageSize.Height)

	stats := det.Stats()
	assert.True(t, stats.ModelLoaded)
	assert.EqualValues(t, 2, stats.TotalDetections)
}

func TestRemotePropagatesSidecarFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	det := NewRemote(config.DetectorConfig{
		Mode:         "remote",
		ModelPath:    "model/best.pt",
		InferenceURL: srv.URL,
		Timeout:      5 * time.Second,
	})

	_, err := det.Detect(context.Background(), writeTestImage(t))
	require.Error(t, err)
}
