package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/repository"
)

// Reputation points awarded per persisted pothole.
const reputationPerPothole = 5

type potholeRepository struct {
	db *sqlx.DB
}

// NewPotholeRepository creates a SQLite pothole repository.
func NewPotholeRepository(db *sqlx.DB) repository.PotholeRepository {
	return &potholeRepository{db: db}
}

// SaveBatch persists one detect-and-save call in a single transaction:
// the detection session, one pothole row per geolocated detection, and the
// reporting user's counter rollups. total_reports counts the batch once;
// per-severity counts and reputation accrue per pothole.
func (r *potholeRepository) SaveBatch(ctx context.Context, batch *repository.SaveBatch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	sessionQuery := `
		INSERT INTO detection_sessions (session_id, user_id, total_potholes, area_coverage, created_at)
		VALUES (:session_id, :user_id, :total_potholes, :area_coverage, :created_at)`
	if _, err := tx.NamedExecContext(ctx, sessionQuery, batch.Session); err != nil {
		return fmt.Errorf("failed to insert detection session: %w", err)
	}

	potholeQuery := `
		INSERT INTO potholes (
			pothole_id, user_id, latitude, longitude, severity, confidence, size,
			timestamp, image_path, detection_json, session_id
		) VALUES (
			:pothole_id, :user_id, :latitude, :longitude, :severity, :confidence, :size,
			:timestamp, :image_path, :detection_json, :session_id
		)`

	var high, medium, low int
	for i := range batch.Potholes {
		p := &batch.Potholes[i]
		if _, err := tx.NamedExecContext(ctx, potholeQuery, p); err != nil {
			return fmt.Errorf("failed to insert pothole %s: %w", p.PotholeID, err)
		}
		switch p.Severity {
		case domain.SeverityHigh:
			high++
		case domain.SeverityMedium:
			medium++
		default:
			low++
		}
	}

	reputation := reputationPerPothole * len(batch.Potholes)
	now := batch.Session.CreatedAt

	userQuery := `
		UPDATE users
		SET total_reports = total_reports + 1,
			reputation_points = reputation_points + ?,
			last_active_at = ?
		WHERE user_id = ?`
	result, err := tx.ExecContext(ctx, userQuery, reputation, now, batch.Session.UserID)
	if err != nil {
		return fmt.Errorf("failed to update user counters: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to update user counters: %w", repository.ErrNotFound)
	}

	statsQuery := `
		INSERT INTO user_statistics (
			user_id, total_reports, high_severity, medium_severity, low_severity,
			reputation_points, last_activity
		) VALUES (?, 1, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			total_reports = total_reports + 1,
			high_severity = high_severity + excluded.high_severity,
			medium_severity = medium_severity + excluded.medium_severity,
			low_severity = low_severity + excluded.low_severity,
			reputation_points = reputation_points + excluded.reputation_points,
			last_activity = excluded.last_activity`
	if _, err := tx.ExecContext(ctx, statsQuery, batch.Session.UserID, high, medium, low, reputation, now); err != nil {
		return fmt.Errorf("failed to update user statistics: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

const mapPotholeColumns = `
	id, latitude, longitude, severity, confidence, size, timestamp,
	CASE severity
		WHEN 'high' THEN 3
		WHEN 'medium' THEN 2
		ELSE 1
	END AS severity_weight`

// GetByArea returns potholes inside the bounding box, boundary inclusive,
// newest first.
func (r *potholeRepository) GetByArea(ctx context.Context, box domain.BoundingBox) ([]domain.MapPothole, error) {
	query := `
		SELECT ` + mapPotholeColumns + `
		FROM potholes
		WHERE latitude BETWEEN ? AND ?
		AND longitude BETWEEN ? AND ?
		ORDER BY timestamp DESC`

	potholes := []domain.MapPothole{}
	err := r.db.SelectContext(ctx, &potholes, query,
		box.SouthWestLat, box.NorthEastLat, box.SouthWestLng, box.NorthEastLng)
	if err != nil {
		return nil, fmt.Errorf("failed to query potholes by area: %w", err)
	}

	return potholes, nil
}

func (r *potholeRepository) GetRecent(ctx context.Context, limit int) ([]domain.MapPothole, error) {
	query := `
		SELECT ` + mapPotholeColumns + `
		FROM potholes
		ORDER BY timestamp DESC
		LIMIT ?`

	potholes := []domain.MapPothole{}
	if err := r.db.SelectContext(ctx, &potholes, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query recent potholes: %w", err)
	}

	return potholes, nil
}

func (r *potholeRepository) ListAll(ctx context.Context) ([]domain.MapPothole, error) {
	query := `
		SELECT ` + mapPotholeColumns + `
		FROM potholes
		ORDER BY timestamp DESC`

	potholes := []domain.MapPothole{}
	if err := r.db.SelectContext(ctx, &potholes, query); err != nil {
		return nil, fmt.Errorf("failed to list potholes: %w", err)
	}

	return potholes, nil
}

func (r *potholeRepository) GetHeatmap(ctx context.Context) ([]domain.HeatmapPoint, error) {
	query := `
		SELECT latitude, longitude,
			CASE severity
				WHEN 'high' THEN 0.8
				WHEN 'medium' THEN 0.5
				ELSE 0.3
			END AS weight
		FROM potholes`

	points := []domain.HeatmapPoint{}
	if err := r.db.SelectContext(ctx, &points, query); err != nil {
		return nil, fmt.Errorf("failed to query heatmap data: %w", err)
	}

	return points, nil
}

func (r *potholeRepository) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	query := `
		SELECT
			COUNT(*) AS total_potholes,
			COALESCE(AVG(CASE severity
				WHEN 'high' THEN 3
				WHEN 'medium' THEN 2
				ELSE 1
			END), 0) AS avg_severity,
			COALESCE(SUM(CASE WHEN severity = 'high' THEN 1 ELSE 0 END), 0) AS high_severity,
			COALESCE(SUM(CASE WHEN severity = 'medium' THEN 1 ELSE 0 END), 0) AS medium_severity,
			COALESCE(SUM(CASE WHEN severity = 'low' THEN 1 ELSE 0 END), 0) AS low_severity
		FROM potholes`

	var stats domain.Statistics
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}

	userQuery := `
		SELECT COUNT(*) AS total_users, COALESCE(SUM(total_reports), 0) AS total_reports
		FROM users`
	row := struct {
		TotalUsers   int `db:"total_users"`
		TotalReports int `db:"total_reports"`
	}{}
	if err := r.db.GetContext(ctx, &row, userQuery); err != nil {
		return nil, fmt.Errorf("failed to query user totals: %w", err)
	}
	stats.TotalUsers = row.TotalUsers
	stats.TotalReports = row.TotalReports

	return &stats, nil
}
