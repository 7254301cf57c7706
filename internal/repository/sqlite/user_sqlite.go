package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/repository"
)

const userColumns = `user_id, email, username, password_hash, role, is_active, is_anonymous,
	total_reports, reputation_points, created_at, last_login_at, last_active_at,
	ip_address, user_agent`

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a SQLite user repository.
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			user_id, email, username, password_hash, role, is_active, is_anonymous,
			total_reports, reputation_points, created_at, last_login_at, last_active_at,
			ip_address, user_agent
		) VALUES (
			:user_id, :email, :username, :password_hash, :role, :is_active, :is_anonymous,
			:total_reports, :reputation_points, :created_at, :last_login_at, :last_active_at,
			:ip_address, :user_agent
		)`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) EnsureAnonymous(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			user_id, email, username, password_hash, role, is_active, is_anonymous,
			total_reports, reputation_points, created_at, last_login_at, last_active_at,
			ip_address, user_agent
		) VALUES (
			:user_id, :email, :username, :password_hash, :role, :is_active, :is_anonymous,
			:total_reports, :reputation_points, :created_at, :last_login_at, :last_active_at,
			:ip_address, :user_agent
		)
		ON CONFLICT (user_id) DO UPDATE SET
			last_active_at = excluded.last_active_at`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to upsert anonymous user: %w", err)
	}

	return nil
}

func (r *userRepository) EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? OR username = ?)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, username); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}

	return exists, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	query := `UPDATE users SET last_login_at = ?, last_active_at = ? WHERE user_id = ?`

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, now, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *userRepository) GetStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error) {
	query := `
		SELECT user_id, total_reports, high_severity, medium_severity, low_severity,
			   reputation_points, last_activity
		FROM user_statistics
		WHERE user_id = ?`

	var stats domain.UserStatistics
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// A user with no saved batches has an empty rollup, not an error.
			return &domain.UserStatistics{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get user statistics: %w", err)
	}

	return &stats, nil
}

func (r *userRepository) EraseUser(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin erasure transaction: %w", err)
	}
	defer tx.Rollback()

	for _, query := range []string{
		`DELETE FROM potholes WHERE user_id = ?`,
		`DELETE FROM detection_sessions WHERE user_id = ?`,
		`DELETE FROM user_statistics WHERE user_id = ?`,
		`DELETE FROM sessions WHERE user_id = ?`,
		`DELETE FROM users WHERE user_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("failed to erase user data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit erasure: %w", err)
	}

	return nil
}
