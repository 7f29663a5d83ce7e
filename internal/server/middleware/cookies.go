package middleware

import "net/http"

// SessionCookieMaxAge is the lifetime, in seconds, of the refresh-token and
// session-id cookies (7 days).
const SessionCookieMaxAge = 7 * 24 * 60 * 60

// CookiePolicy names the auth cookies and fixes their attributes. In
// production cookies are httpOnly and secure with SameSite=None (the frontend
// is served from a different origin); in development they stay readable and
// SameSite=Lax so local setups without TLS keep working.
type CookiePolicy struct {
	AccessName  string
	RefreshName string
	SessionName string
	Production  bool
}

// Set writes a cookie with the policy's attributes. maxAge is in seconds.
func (p CookiePolicy) Set(w http.ResponseWriter, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if p.Production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: p.Production,
		Secure:   p.Production,
		SameSite: sameSite,
	})
}

// Expire instructs the client to drop the named cookie.
func (p CookiePolicy) Expire(w http.ResponseWriter, name string) {
	p.Set(w, name, "", -1)
}

// ExpireAll drops all three auth cookies.
func (p CookiePolicy) ExpireAll(w http.ResponseWriter) {
	p.Expire(w, p.AccessName)
	p.Expire(w, p.RefreshName)
	p.Expire(w, p.SessionName)
}
