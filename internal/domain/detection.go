package domain

// BBox is [x, y, width, height] in pixels, as produced by the model.
type BBox [4]float64

func (b BBox) Width() float64  { return b[2] }
func (b BBox) Height() float64 { return b[3] }
func (b BBox) Area() float64   { return b[2] * b[3] }

// Detection is one model-identified bounding box with a confidence score.
type Detection struct {
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
	ClassID    int     `json:"class_id"`
}

// Severity is a categorical tier derived from detection size and confidence.
type Severity struct {
	Level       string  `json:"level"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// EnrichedDetection is a Detection annotated with severity and request
// metadata, as returned to the caller and handed to the persistence layer.
type EnrichedDetection struct {
	Detection
	Severity  Severity  `json:"severity"`
	Location  *Location `json:"location"`
	Timestamp string    `json:"timestamp"`
}

// ImageSize is the dimensions of the analysed image.
type ImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
