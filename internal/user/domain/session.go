package domain

import "time"

// Session binds a user to one live refresh-token value. SessionToken holds
// the serialized refresh token currently valid for this session; the
// session_id claim inside that token must equal ID for the session to be
// trusted. Sessions are revoked by flipping IsActive to false and are never
// deleted by this core.
type Session struct {
	ID           string
	UserID       string
	SessionToken string
	IPAddress    string
	UserAgent    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time // nil until first update
	LastActivity *time.Time
}
