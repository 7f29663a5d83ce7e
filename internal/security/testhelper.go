package security

import "time"

// NewTestTokenCodec returns a TokenCodec with fixed secrets and short
// lifetimes. For unit tests only. Callers must not use in production.
func NewTestTokenCodec() *TokenCodec {
	return NewTokenCodec("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
}

// NewExpiredTokenCodec returns a TokenCodec whose issued tokens are already
// expired. Test-only helper for exercising the refresh path.
func NewExpiredTokenCodec() *TokenCodec {
	return NewTokenCodec("test-access-secret", "test-refresh-secret", -time.Second, -time.Second)
}
