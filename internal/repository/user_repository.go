package repository

import (
	"context"

	"github.com/roadwatch/pothole-service/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// EnsureAnonymous upserts an anonymous user row keyed on user_id,
	// refreshing last_active_at when the row already exists.
	EnsureAnonymous(ctx context.Context, user *domain.User) error
	EmailOrUsernameExists(ctx context.Context, email, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	GetStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error)
	// EraseUser removes every row referencing the user across potholes,
	// detection_sessions, user_statistics, sessions, and users, atomically.
	EraseUser(ctx context.Context, userID string) error
}
