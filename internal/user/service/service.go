// Package service implements user account and session management on top of
// the repository and security layers. All multi-statement operations run
// inside a request-scoped transaction supplied by db.TxManager.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"intelliflow/backend/internal/apperr"
	"intelliflow/backend/internal/security"
	"intelliflow/backend/internal/user/domain"
	"intelliflow/backend/internal/user/repository"
)

// LoginResult carries everything the transport layer needs to establish an
// authenticated browser session.
type LoginResult struct {
	User         *domain.User
	SessionID    string
	AccessToken  string
	RefreshToken string
}

// Transactor runs a function inside a transaction; satisfied by db.TxManager.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides user registration, login, and session revocation.
type Service struct {
	repo   repository.Repository
	tx     Transactor
	tokens *security.TokenCodec
	hasher *security.Hasher
	logger *zap.Logger
}

// New returns a user service.
func New(repo repository.Repository, tx Transactor, tokens *security.TokenCodec, hasher *security.Hasher, logger *zap.Logger) *Service {
	return &Service{repo: repo, tx: tx, tokens: tokens, hasher: hasher, logger: logger}
}

// Register creates a new user account with a hashed password. Returns a 400
// error when the email is already registered.
func (s *Service) Register(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := u.Validate(); err != nil {
		return nil, apperr.BadRequest(err.Error())
	}

	hash, err := s.hasher.Hash([]byte(u.Password))
	if err != nil {
		return nil, apperr.Internal("internal server error", err)
	}

	now := time.Now().UTC()
	created := &domain.User{
		ID:        uuid.NewString(),
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Password:  hash,
		Role:      u.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, created); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.BadRequest("Email already registered.")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", created.ID))
	return created, nil
}

// Login verifies credentials and establishes a session. When the user already
// has an active session, that session is reused and its stored refresh token
// is returned again; otherwise a new session is created whose refresh token
// embeds the session id. Returns (nil, nil) for bad credentials, unknown
// emails, inactive accounts, and blocked accounts alike, so callers cannot
// distinguish the cases.
func (s *Service) Login(ctx context.Context, email, password, ipAddress, userAgent string) (*LoginResult, error) {
	var res *LoginResult

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if u == nil || !u.CanLogin() {
			return nil
		}
		if err := s.hasher.Compare(u.Password, []byte(password)); err != nil {
			return nil
		}

		sessions, err := s.repo.GetActiveSessionsByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		var sessionID, refreshToken string
		if len(sessions) > 0 {
			sessionID = sessions[0].ID
			refreshToken = sessions[0].SessionToken
		} else {
			sessionID = uuid.NewString()
			refreshToken, err = s.tokens.IssueRefresh(u.ID, sessionID, nil)
			if err != nil {
				return apperr.Internal("internal server error", err)
			}
			sess := &domain.Session{
				ID:           sessionID,
				UserID:       u.ID,
				SessionToken: refreshToken,
				IPAddress:    truncate(ipAddress, 45),
				UserAgent:    truncate(userAgent, 500),
				IsActive:     true,
				CreatedAt:    time.Now().UTC(),
			}
			if err := s.repo.CreateSession(ctx, sess); err != nil {
				return err
			}
		}

		accessToken, err := s.tokens.IssueAccess(u.ID, map[string]string{"role": string(u.Role)})
		if err != nil {
			return apperr.Internal("internal server error", err)
		}

		res = &LoginResult{User: u, SessionID: sessionID, AccessToken: accessToken, RefreshToken: refreshToken}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res != nil {
		s.logger.Info("user logged in",
			zap.String("user_id", res.User.ID),
			zap.String("session_id", res.SessionID))
	}
	return res, nil
}

// GetUser returns the user for id, or a 404 error when it does not exist.
func (s *Service) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var u *domain.User
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		u, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return apperr.NotFound("User not found.")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RevokeSession marks the session inactive. Revoking a session that is
// already inactive or does not exist is not an error.
func (s *Service) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		sess, err := s.repo.SetSessionActive(ctx, sessionID, false)
		if err != nil {
			return err
		}
		if sess != nil {
			s.logger.Info("session revoked", zap.String("session_id", sess.ID))
		}
		return nil
	})
}

// GetActiveSessionByToken returns the active session holding the given
// refresh-token value, or nil when no such session exists or it has been
// revoked.
func (s *Service) GetActiveSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	var sess *domain.Session
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		sess, err = s.repo.GetSessionByToken(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.IsActive {
		return nil, nil
	}
	return sess, nil
}

// truncate bounds s to the column width so client-supplied headers cannot
// fail the insert.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
