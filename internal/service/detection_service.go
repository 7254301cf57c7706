package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roadwatch/pothole-service/internal/config"
	"github.com/roadwatch/pothole-service/internal/detector"
	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/repository"
	"github.com/roadwatch/pothole-service/internal/severity"
	"github.com/roadwatch/pothole-service/pkg/cache"
)

var (
	ErrNoImage         = errors.New("no image data provided")
	ErrInvalidFileType = errors.New("invalid file type, supported: png, jpg, jpeg, gif, webp")
	ErrInvalidImageURL = errors.New("invalid image url")
	ErrDownloadFailed  = errors.New("failed to download image from url")
	ErrNotAnImage      = errors.New("url does not point to an image")
	ErrInvalidBase64   = errors.New("invalid base64 image")
	ErrImageUnreadable = errors.New("failed to process image")
)

// Cache keys for the map aggregates, invalidated on every batch save.
const (
	CacheKeyStatistics = "map:statistics"
	CacheKeyHeatmap    = "map:heatmap"
)

// DetectionService orchestrates one detect call: obtain image bytes, invoke
// the detector, enrich each detection, and persist the geolocated batch.
type DetectionService struct {
	det         detector.Detector
	potholeRepo repository.PotholeRepository
	aggCache    *cache.Cache

	uploadDir   string
	allowedExts map[string]struct{}
	downloader  *http.Client
}

func NewDetectionService(
	det detector.Detector,
	potholeRepo repository.PotholeRepository,
	aggCache *cache.Cache,
	cfg config.UploadConfig,
) *DetectionService {
	allowed := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[ext] = struct{}{}
	}

	return &DetectionService{
		det:         det,
		potholeRepo: potholeRepo,
		aggCache:    aggCache,
		uploadDir:   cfg.Dir,
		allowedExts: allowed,
		downloader: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
	}
}

// DetectResult is the outcome of one detect-and-save call. Warning is set
// when detection succeeded but persistence did not; the detections are still
// returned to the caller.
type DetectResult struct {
	Detections      []domain.EnrichedDetection `json:"detections"`
	ImageSize       domain.ImageSize           `json:"image_size"`
	ProcessingTime  float64                    `json:"processing_time"`
	ModelUsed       string                     `json:"model_used"`
	TotalDetections int                        `json:"total_detections"`
	Status          string                     `json:"status"`
	AnnotatedImage  string                     `json:"annotated_image,omitempty"`
	SessionID       string                     `json:"session_id,omitempty"`
	Warning         string                     `json:"warning,omitempty"`
}

// AllowedFile reports whether the filename carries a supported extension.
func (s *DetectionService) AllowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return false
	}
	_, ok := s.allowedExts[ext]
	return ok
}

// SaveUpload writes uploaded image bytes under a generated name and returns
// the path. The caller owns cleanup via Cleanup.
func (s *DetectionService) SaveUpload(filename string, data []byte) (string, error) {
	if !s.AllowedFile(filename) {
		return "", ErrInvalidFileType
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	path := filepath.Join(s.uploadDir, uuid.NewString()+"."+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return path, nil
}

// FetchURL downloads an image over HTTP with a bounded timeout and stores it
// like an upload. The URL must be http(s) and name an image file, and the
// response must carry an image content type.
func (s *DetectionService) FetchURL(ctx context.Context, imageURL string) (string, error) {
	if !s.validImageURL(imageURL) {
		return "", ErrInvalidImageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", ErrInvalidImageURL
	}
	// Some image hosts refuse requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := s.downloader.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return "", ErrNotAnImage
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	return s.saveRaw(data)
}

// DecodeBase64 stores a base64-encoded image, accepting both bare payloads
// and data URLs (data:image/png;base64,...).
func (s *DetectionService) DecodeBase64(encoded string) (string, error) {
	if idx := strings.Index(encoded, ","); idx >= 0 {
		encoded = encoded[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidBase64
	}

	return s.saveRaw(data)
}

func (s *DetectionService) saveRaw(data []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(s.uploadDir, uuid.NewString()+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return path, nil
}

// Cleanup removes a temporary image file; called on every exit path.
func (s *DetectionService) Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[DETECT] failed to remove temp file %s: %v", path, err)
	}
}

// Detect runs the detector on imagePath and enriches every detection with
// severity and request metadata. When location data is present the batch is
// persisted; a persistence failure downgrades to a warning because the
// detection result is still valid for the caller.
func (s *DetectionService) Detect(
	ctx context.Context,
	imagePath string,
	userID string,
	location *domain.Location,
	timestamp time.Time,
) (*DetectResult, error) {
	result, err := s.det.Detect(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnreadable, err)
	}

	ts := timestamp.UTC().Format(time.RFC3339)
	enriched := make([]domain.EnrichedDetection, 0, len(result.Detections))
	for _, d := range result.Detections {
		enriched = append(enriched, domain.EnrichedDetection{
			Detection: d,
			Severity:  severityOf(d),
			Location:  location,
			Timestamp: ts,
		})
	}

	out := &DetectResult{
		Detections:      enriched,
		ImageSize:       result.ImageSize,
		ProcessingTime:  result.ProcessingTime,
		ModelUsed:       result.ModelUsed,
		TotalDetections: result.TotalDetections,
		Status:          result.Status,
		AnnotatedImage:  result.AnnotatedImage,
	}

	if location == nil || len(enriched) == 0 {
		return out, nil
	}

	sessionID, err := s.saveBatch(ctx, userID, location, enriched, timestamp)
	if err != nil {
		// Isolate persistence failures from the detection result.
		log.Printf("[DETECT] failed to save batch for user %s: %v", userID, err)
		out.Warning = "detections could not be saved"
		return out, nil
	}
	out.SessionID = sessionID

	if err := s.aggCache.Invalidate(ctx, CacheKeyStatistics, CacheKeyHeatmap); err != nil {
		log.Printf("[DETECT] %v", err)
	}

	return out, nil
}

func (s *DetectionService) saveBatch(
	ctx context.Context,
	userID string,
	location *domain.Location,
	detections []domain.EnrichedDetection,
	timestamp time.Time,
) (string, error) {
	sessionID := uuid.NewString()
	now := time.Now().UTC()

	batch := &repository.SaveBatch{
		Session: domain.DetectionSession{
			SessionID:     sessionID,
			UserID:        userID,
			TotalPotholes: len(detections),
			AreaCoverage:  "Unknown",
			CreatedAt:     now,
		},
	}

	for _, d := range detections {
		raw, err := json.Marshal(d)
		if err != nil {
			return "", fmt.Errorf("marshal detection: %w", err)
		}
		batch.Potholes = append(batch.Potholes, domain.Pothole{
			PotholeID:     uuid.NewString(),
			UserID:        userID,
			Latitude:      location.Latitude,
			Longitude:     location.Longitude,
			Severity:      d.Severity.Level,
			Confidence:    d.Confidence,
			Size:          d.BBox.Area(),
			Timestamp:     timestamp.UTC(),
			ImagePath:     fmt.Sprintf("detection_%s.jpg", sessionID),
			DetectionJSON: string(raw),
			SessionID:     sessionID,
		})
	}

	if err := s.potholeRepo.SaveBatch(ctx, batch); err != nil {
		return "", err
	}

	return sessionID, nil
}

// DetectorStats exposes the adapter's lifecycle state for health and model
// info endpoints.
func (s *DetectionService) DetectorStats() detector.Stats {
	return s.det.Stats()
}

func severityOf(d domain.Detection) domain.Severity {
	return severity.Score(d.BBox, d.Confidence)
}

func (s *DetectionService) validImageURL(imageURL string) bool {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	lower := strings.ToLower(imageURL)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
