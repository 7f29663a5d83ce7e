package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"intelliflow/backend/internal/db"
	"intelliflow/backend/internal/user/domain"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint
// (e.g. registering an already-used email).
var ErrDuplicate = errors.New("duplicate record")

const (
	qUserCreate = `
INSERT INTO users (id, username, name, email, password, role, is_active, is_blocked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`
	qUserByID = `
SELECT id, COALESCE(username, ''), COALESCE(name, ''), email, password, role, is_active, is_blocked, created_at, updated_at
FROM users WHERE id = $1;
`
	qUserByEmail = `
SELECT id, COALESCE(username, ''), COALESCE(name, ''), email, password, role, is_active, is_blocked, created_at, updated_at
FROM users WHERE email = $1;
`
	qSessionCreate = `
INSERT INTO user_sessions (id, user_id, session_token, ip_address, user_agent, is_active, created_at, last_activity)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, now());
`
	qSessionByID = `
SELECT id, user_id, session_token, COALESCE(ip_address, ''), COALESCE(user_agent, ''), is_active, created_at, updated_at, last_activity
FROM user_sessions WHERE id = $1;
`
	qSessionsActiveByUser = `
SELECT id, user_id, session_token, COALESCE(ip_address, ''), COALESCE(user_agent, ''), is_active, created_at, updated_at, last_activity
FROM user_sessions WHERE user_id = $1 AND is_active = TRUE
ORDER BY created_at DESC;
`
	qSessionByToken = `
SELECT id, user_id, session_token, COALESCE(ip_address, ''), COALESCE(user_agent, ''), is_active, created_at, updated_at, last_activity
FROM user_sessions WHERE session_token = $1;
`
	qSessionSetActive = `
UPDATE user_sessions SET is_active = $2, updated_at = now() WHERE id = $1
RETURNING id, user_id, session_token, COALESCE(ip_address, ''), COALESCE(user_agent, ''), is_active, created_at, updated_at, last_activity;
`
)

// PostgresRepository persists users and sessions in Postgres. Queries run on
// the ambient transaction when one is open (see db.TxManager), on the pool
// otherwise.
type PostgresRepository struct {
	db *db.DB
}

// NewPostgresRepository returns a user repository over the given database.
func NewPostgresRepository(database *db.DB) *PostgresRepository {
	return &PostgresRepository{db: database}
}

// Create persists the user. The user must have ID set; it is not assigned by
// this method. Returns ErrDuplicate when the email is already registered.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.Querier(ctx).Exec(ctx, qUserCreate,
		u.ID, nullIfEmpty(u.Username), nullIfEmpty(u.Name), u.Email, u.Password,
		string(u.Role), u.IsActive, u.IsBlocked, u.CreatedAt, u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return scanUser(r.db.Querier(ctx).QueryRow(ctx, qUserByID, id))
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return scanUser(r.db.Querier(ctx).QueryRow(ctx, qUserByEmail, email))
}

// CreateSession persists the session. The session must have ID set.
func (r *PostgresRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.Querier(ctx).Exec(ctx, qSessionCreate,
		s.ID, s.UserID, s.SessionToken, s.IPAddress, s.UserAgent, s.IsActive, s.CreatedAt)
	return err
}

// GetSessionByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return scanSession(r.db.Querier(ctx).QueryRow(ctx, qSessionByID, id))
}

// GetActiveSessionsByUser returns the user's active sessions, newest first.
func (r *PostgresRepository) GetActiveSessionsByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	rows, err := r.db.Querier(ctx).Query(ctx, qSessionsActiveByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSessionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSessionByToken returns the session holding the given refresh-token value,
// or nil if not found.
func (r *PostgresRepository) GetSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return scanSession(r.db.Querier(ctx).QueryRow(ctx, qSessionByToken, token))
}

// SetSessionActive flips the session's is_active flag and returns the updated
// session, or nil if no session with that id exists.
func (r *PostgresRepository) SetSessionActive(ctx context.Context, id string, active bool) (*domain.Session, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	return scanSession(r.db.Querier(ctx).QueryRow(ctx, qSessionSetActive, id, active))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Password,
		&role, &u.IsActive, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	s, err := scanSessionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanSessionRow(row pgx.Row) (*domain.Session, error) {
	var s domain.Session
	err := row.Scan(&s.ID, &s.UserID, &s.SessionToken, &s.IPAddress, &s.UserAgent,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt, &s.LastActivity)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
