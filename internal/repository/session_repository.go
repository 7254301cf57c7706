package repository

import (
	"context"

	"github.com/roadwatch/pothole-service/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	// DeleteByTokenHash is idempotent; deleting an absent session is not an
	// error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context) (int64, error)
}
