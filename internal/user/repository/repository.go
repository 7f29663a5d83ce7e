package repository

import (
	"context"

	"intelliflow/backend/internal/user/domain"
)

// Repository defines persistence for users and their sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error

	GetSessionByID(ctx context.Context, id string) (*domain.Session, error)
	// GetActiveSessionsByUser returns the user's active sessions, newest first.
	GetActiveSessionsByUser(ctx context.Context, userID string) ([]*domain.Session, error)
	GetSessionByToken(ctx context.Context, token string) (*domain.Session, error)
	CreateSession(ctx context.Context, s *domain.Session) error
	// SetSessionActive flips the session's is_active flag. Returns the updated
	// session, or nil if no session with that id exists.
	SetSessionActive(ctx context.Context, id string, active bool) (*domain.Session, error)
}
