package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Decode errors. All three are "invalid" as far as clients are concerned; the
// distinction exists so callers can branch without matching messages.
var (
	// ErrTokenMalformed is returned when the token is not a parseable JWT.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired is returned when the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned for bad signatures, including decoding with
	// the wrong kind's secret, and any other validation failure.
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenKind selects which secret and lifetime a token is issued or decoded with.
type TokenKind int

const (
	// KindAccess is the short-lived access token signed with the access secret.
	KindAccess TokenKind = iota
	// KindRefresh is the long-lived refresh token signed with the refresh secret.
	KindRefresh
)

// Claims is the decoded payload of an access or refresh token.
type Claims struct {
	// Subject is the user id the token was issued for.
	Subject string
	// SessionID is set only on refresh tokens; it must match the session cookie.
	SessionID string
	// Extra holds additional flat claims (role, email).
	Extra map[string]string
}

// TokenCodec issues and decodes HS256-signed expiring tokens. Access and
// refresh tokens use distinct secrets so compromise of one does not
// compromise the other. Pure over the configured secrets; no side effects.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenCodec returns a TokenCodec signing with the given secrets and lifetimes.
func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess issues a short-lived access token for the given subject with
// optional extra claims. The expiry is embedded as an absolute timestamp.
func (c *TokenCodec) IssueAccess(subject string, extra map[string]string) (string, error) {
	return c.issue(subject, "", extra, c.accessSecret, c.accessTTL)
}

// IssueRefresh issues a long-lived refresh token bound to the given session id.
func (c *TokenCodec) IssueRefresh(subject, sessionID string, extra map[string]string) (string, error) {
	return c.issue(subject, sessionID, extra, c.refreshSecret, c.refreshTTL)
}

func (c *TokenCodec) issue(subject, sessionID string, extra map[string]string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(ttl)),
	}
	if sessionID != "" {
		claims["session_id"] = sessionID
	}
	for k, v := range extra {
		claims[k] = v
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// Decode parses and validates a token with the given kind's secret. Returns
// ErrTokenMalformed, ErrTokenExpired, or ErrTokenInvalid on failure. Decoding
// a token with the wrong kind's secret fails with ErrTokenInvalid. Expiry is
// a strict now-past-exp check; no clock skew is compensated.
func (c *TokenCodec) Decode(tokenString string, kind TokenKind) (*Claims, error) {
	secret := c.accessSecret
	if kind == KindRefresh {
		secret = c.refreshSecret
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return mapClaims(mc), nil
}

func mapClaims(mc jwt.MapClaims) *Claims {
	out := &Claims{Extra: map[string]string{}}
	for k, v := range mc {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch k {
		case "sub":
			out.Subject = s
		case "session_id":
			out.SessionID = s
		default:
			out.Extra[k] = s
		}
	}
	return out
}
