package domain

import (
	"time"
)

// Location is a geocoordinate supplied by the client.
type Location struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// Pothole is one persisted detection with resolvable location data.
type Pothole struct {
	ID            int64     `json:"id" db:"id"`
	PotholeID     string    `json:"pothole_id" db:"pothole_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Latitude      float64   `json:"latitude" db:"latitude"`
	Longitude     float64   `json:"longitude" db:"longitude"`
	Severity      string    `json:"severity" db:"severity"`
	Confidence    float64   `json:"confidence" db:"confidence"`
	Size          float64   `json:"size" db:"size"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	ImagePath     string    `json:"image_path,omitempty" db:"image_path"`
	DetectionJSON string    `json:"-" db:"detection_json"`
	SessionID     string    `json:"session_id,omitempty" db:"session_id"`
}

// DetectionSession groups the potholes submitted in one save call.
// Created once per save, never mutated.
type DetectionSession struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     string    `json:"session_id" db:"session_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	TotalPotholes int       `json:"total_potholes" db:"total_potholes"`
	AreaCoverage  string    `json:"area_coverage" db:"area_coverage"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// BoundingBox is a map viewport query, inclusive of its boundary values.
type BoundingBox struct {
	NorthEastLat float64 `json:"ne_lat"`
	NorthEastLng float64 `json:"ne_lng"`
	SouthWestLat float64 `json:"sw_lat"`
	SouthWestLng float64 `json:"sw_lng"`
}

// MapPothole is the read-model returned by area queries.
type MapPothole struct {
	ID             int64     `json:"id" db:"id"`
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
	Severity       string    `json:"severity" db:"severity"`
	Confidence     float64   `json:"confidence" db:"confidence"`
	Size           float64   `json:"size" db:"size"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
	SeverityWeight int       `json:"severity_weight" db:"severity_weight"`
}

// HeatmapPoint carries the fixed severity weighting used by the map overlay:
// high 0.8, medium 0.5, low 0.3.
type HeatmapPoint struct {
	Latitude  float64 `json:"lat" db:"latitude"`
	Longitude float64 `json:"lng" db:"longitude"`
	Weight    float64 `json:"weight" db:"weight"`
}

// Statistics is the global aggregate over all persisted potholes.
// AvgSeverity averages the weight mapping high=3, medium=2, low=1.
type Statistics struct {
	TotalPotholes  int     `json:"total_potholes" db:"total_potholes"`
	AvgSeverity    float64 `json:"avg_severity" db:"avg_severity"`
	HighSeverity   int     `json:"high_severity" db:"high_severity"`
	MediumSeverity int     `json:"medium_severity" db:"medium_severity"`
	LowSeverity    int     `json:"low_severity" db:"low_severity"`
	TotalUsers     int     `json:"total_users" db:"total_users"`
	TotalReports   int     `json:"total_reports" db:"total_reports"`
}
