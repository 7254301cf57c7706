package domain

import (
	"time"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is a reporter identity. Anonymous users carry a generated
// pseudo-email/username and are keyed by the same user_id that lives in the
// client cookie.
type User struct {
	UserID           string     `json:"user_id" db:"user_id"`
	Email            string     `json:"email" db:"email"`
	Username         string     `json:"username" db:"username"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Role             UserRole   `json:"role" db:"role"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	IsAnonymous      bool       `json:"is_anonymous" db:"is_anonymous"`
	TotalReports     int        `json:"total_reports" db:"total_reports"`
	ReputationPoints int        `json:"reputation_points" db:"reputation_points"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	LastLoginAt      *time.Time `json:"last_login_at" db:"last_login_at"`
	LastActiveAt     time.Time  `json:"last_active_at" db:"last_active_at"`
	IPAddress        string     `json:"-" db:"ip_address"`
	UserAgent        string     `json:"-" db:"user_agent"`
}

// UserStatistics is a denormalized per-user rollup. Purely derived data,
// rebuildable from the potholes table.
type UserStatistics struct {
	UserID           string    `json:"user_id" db:"user_id"`
	TotalReports     int       `json:"total_reports" db:"total_reports"`
	HighSeverity     int       `json:"high_severity" db:"high_severity"`
	MediumSeverity   int       `json:"medium_severity" db:"medium_severity"`
	LowSeverity      int       `json:"low_severity" db:"low_severity"`
	ReputationPoints int       `json:"reputation_points" db:"reputation_points"`
	LastActivity     time.Time `json:"last_activity" db:"last_activity"`
}
