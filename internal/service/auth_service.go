package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/roadwatch/pothole-service/internal/domain"
	"github.com/roadwatch/pothole-service/internal/repository"
	"github.com/roadwatch/pothole-service/pkg/hash"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used for account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("email or username already registered")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	sessionTTL  time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		sessionTTL:  sessionTTL,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Identity is the caller-visible view of a user.
type Identity struct {
	UserID           string          `json:"user_id"`
	Email            string          `json:"email"`
	Username         string          `json:"username"`
	Role             domain.UserRole `json:"role"`
	IsAnonymous      bool            `json:"is_anonymous"`
	TotalReports     int             `json:"total_reports"`
	ReputationPoints int             `json:"reputation_points"`
}

type LoginResult struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *Identity `json:"user"`
}

func identityOf(user *domain.User) *Identity {
	return &Identity{
		UserID:           user.UserID,
		Email:            user.Email,
		Username:         user.Username,
		Role:             user.Role,
		IsAnonymous:      user.IsAnonymous,
		TotalReports:     user.TotalReports,
		ReputationPoints: user.ReputationPoints,
	}
}

// Register creates a credentialed user. The password is stored only as an
// argon2id hash with a per-user random salt.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, ip, userAgent string) (string, error) {
	exists, err := s.userRepo.EmailOrUsernameExists(ctx, req.Email, req.Username)
	if err != nil {
		return "", err
	}
	if exists {
		return "", ErrDuplicateUser
	}

	passwordHash, err := hash.Password(req.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		UserID:       uuid.NewString(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		Role:         domain.UserRoleUser,
		IsActive:     true,
		CreatedAt:    now,
		LastActiveAt: now,
		IPAddress:    ip,
		UserAgent:    userAgent,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", err
	}

	return user.UserID, nil
}

// Login verifies credentials and issues an opaque session token valid for
// the configured window.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, ip, userAgent string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	valid, err := hash.Verify(req.Password, user.PasswordHash)
	if err != nil || !valid {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDeactivated
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		TokenHash: hashToken(token),
		UserID:    user.UserID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
		IPAddress: ip,
		UserAgent: userAgent,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.UserID); err != nil {
		// Login already succeeded, the stale timestamp is tolerable.
		log.Printf("[AUTH] failed to update last login for %s: %v", user.UserID, err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      identityOf(user),
	}, nil
}

// ValidateSession resolves a token to an identity. A missing, expired, or
// orphaned session yields (nil, nil); expiry is never extended here.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.GetByTokenHash(ctx, hashToken(token))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if !session.Valid(time.Now().UTC()) {
		return nil, nil
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, nil
	}

	return identityOf(user), nil
}

// Logout deletes the session row; logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessionRepo.DeleteByTokenHash(ctx, hashToken(token))
}

// EnsureAnonymous mints or reuses an anonymous identity. The cookieID comes
// straight from the client; anything that is not a well-formed UUID is
// replaced with a fresh one.
func (s *AuthService) EnsureAnonymous(ctx context.Context, cookieID, ip, userAgent string) (*Identity, error) {
	userID := cookieID
	if _, err := uuid.Parse(userID); err != nil {
		userID = uuid.NewString()
	}

	short := userID[:8]
	now := time.Now().UTC()
	user := &domain.User{
		UserID:       userID,
		Email:        fmt.Sprintf("anon-%s@anonymous.local", short),
		Username:     "anon_" + short,
		Role:         domain.UserRoleUser,
		IsActive:     true,
		IsAnonymous:  true,
		CreatedAt:    now,
		LastActiveAt: now,
		IPAddress:    ip,
		UserAgent:    userAgent,
	}

	if err := s.userRepo.EnsureAnonymous(ctx, user); err != nil {
		return nil, err
	}

	stored, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return identityOf(stored), nil
}

// CleanupExpiredSessions purges sessions past their expiry. Expired sessions
// are already invalid on read; this reclaims the rows.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}

// UserStatistics returns the per-user rollup for the identity.
func (s *AuthService) UserStatistics(ctx context.Context, userID string) (*domain.UserStatistics, error) {
	return s.userRepo.GetStatistics(ctx, userID)
}

// EraseUser removes everything the service stored about the user, atomically.
func (s *AuthService) EraseUser(ctx context.Context, userID string) error {
	return s.userRepo.EraseUser(ctx, userID)
}

func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashToken derives the storage key for a session token; raw tokens are
// never persisted.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
