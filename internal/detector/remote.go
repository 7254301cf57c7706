package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/roadwatch/pothole-service/internal/config"
	"github.com/roadwatch/pothole-service/internal/domain"
)

// Remote runs inference through a YOLO sidecar service over HTTP. The sidecar
// owns the model weights; this adapter owns thresholds, timing, and the
// lifetime detection counter.
type Remote struct {
	inferenceURL string
	modelPath    string
	client       *http.Client

	totalDetections atomic.Int64
}

func NewRemote(cfg config.DetectorConfig) *Remote {
	return &Remote{
		inferenceURL: cfg.InferenceURL,
		modelPath:    cfg.ModelPath,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type inferenceResponse struct {
	Detections []struct {
		BBox       []float64 `json:"bbox"`
		Confidence float64   `json:"confidence"`
		Class      string    `json:"class"`
		ClassID    int       `json:"class_id"`
	} `json:"detections"`
	// AnnotatedImage is the input image with boxes drawn on it, as a
	// base64 data URL. Optional; older sidecars omit it.
	AnnotatedImage string `json:"annotated_image"`
}

func (r *Remote) Detect(ctx context.Context, imagePath string) (*Result, error) {
	start := time.Now()

	resp, err := r.infer(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	detections := make([]domain.Detection, 0, len(resp.Detections))
	for _, d := range resp.Detections {
		if d.Confidence <= ConfidenceThreshold || len(d.BBox) != 4 {
			continue
		}
		class := d.Class
		if class == "" {
			class = "pothole"
		}
		detections = append(detections, domain.Detection{
			BBox:       domain.BBox{d.BBox[0], d.BBox[1], d.BBox[2], d.BBox[3]},
			Confidence: d.Confidence,
			Class:      class,
			ClassID:    d.ClassID,
		})
	}

	r.totalDetections.Add(int64(len(detections)))

	size, err := readImageSize(imagePath)
	if err != nil {
		// Detection already succeeded; dimensions are best effort.
		size = domain.ImageSize{}
	}

	return &Result{
		Detections:      detections,
		ImageSize:       size,
		ProcessingTime:  round3(time.Since(start).Seconds()),
		ModelUsed:       r.modelName(),
		TotalDetections: len(detections),
		Status:          StatusOK,
		AnnotatedImage:  resp.AnnotatedImage,
	}, nil
}

func (r *Remote) infer(ctx context.Context, imagePath string) (*inferenceResponse, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	var result inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}

	return &result, nil
}

func (r *Remote) Stats() Stats {
	return Stats{
		ModelLoaded:     true,
		DetectorType:    r.modelName(),
		ModelPath:       r.modelPath,
		TotalDetections: r.totalDetections.Load(),
	}
}

func (r *Remote) modelName() string {
	return "yolo_" + filepath.Base(r.modelPath)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
