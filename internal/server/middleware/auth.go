package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"intelliflow/backend/internal/security"
)

// DefaultPublicPaths are the routes served without credentials.
var DefaultPublicPaths = []string{
	"/",
	"/health",
	"/metrics",
	"/favicon.ico",
	"/docs",
	"/redoc",
	"/openapi.json",
	"/api/v1/user/register",
	"/api/v1/user/login",
}

// Auth authenticates every request from its cookies. A request is either
// public, authorized from a valid access token, authorized after a transparent
// refresh, or rejected with 401 before any handler runs. The middleware never
// touches the database; refresh validity is established purely from the
// refresh token's signature and its embedded session_id claim.
type Auth struct {
	codec   *security.TokenCodec
	cookies CookiePolicy
	public  map[string]struct{}
	logger  *zap.Logger
}

// NewAuth returns the auth middleware. publicPaths are matched exactly
// against the request path.
func NewAuth(codec *security.TokenCodec, cookies CookiePolicy, publicPaths []string, logger *zap.Logger) *Auth {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}
	return &Auth{codec: codec, cookies: cookies, public: public, logger: logger}
}

// Handler wraps next with credential resolution.
func (a *Auth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		if _, ok := a.public[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}

		accessToken := cookieValue(r, a.cookies.AccessName)
		refreshToken := cookieValue(r, a.cookies.RefreshName)
		sessionID := cookieValue(r, a.cookies.SessionName)

		if accessToken == "" && refreshToken == "" && sessionID == "" {
			a.reject(w, r, "Unauthorized: missing authentication cookies.")
			return
		}

		if accessToken == "" {
			// No access token at all; the refresh pair may still carry a
			// live session.
			a.refreshOrReject(w, r, next, refreshToken, sessionID,
				"Unauthorized: invalid or expired token.")
			return
		}

		claims, err := a.codec.Decode(accessToken, security.KindAccess)
		if err == nil {
			a.authorize(w, r, next, claims.Subject, sessionID, "")
			return
		}

		// Any decode failure looks the same from here on. Fall through to the
		// refresh path when both refresh credentials are present.
		if refreshToken != "" && sessionID != "" {
			a.refreshOrReject(w, r, next, refreshToken, sessionID,
				"Unauthorized: invalid refresh token or session.")
			return
		}
		a.reject(w, r, "Unauthorized: invalid or expired token.")
	})
}

// refreshOrReject validates the refresh token against the session cookie and,
// on success, authorizes the request with a freshly minted access token.
func (a *Auth) refreshOrReject(w http.ResponseWriter, r *http.Request, next http.Handler, refreshToken, sessionID, rejectDetail string) {
	if refreshToken == "" || sessionID == "" {
		a.reject(w, r, rejectDetail)
		return
	}
	claims, err := a.codec.Decode(refreshToken, security.KindRefresh)
	if err != nil || claims.SessionID != sessionID {
		a.reject(w, r, "Unauthorized: invalid refresh token or session.")
		return
	}

	minted, err := a.codec.IssueAccess(claims.Subject, claims.Extra)
	if err != nil {
		a.logger.Error("mint access token", zap.Error(err))
		http.Error(w, "Internal server error.", http.StatusInternalServerError)
		return
	}
	a.authorize(w, r, next, claims.Subject, sessionID, minted)
}

// authorize attaches identity to the request context and forwards it. When a
// token was minted during resolution it is attached to the response with the
// access lifetime as max-age. The cookie header is written before the handler
// runs because headers cannot be appended after the handler starts the body.
func (a *Auth) authorize(w http.ResponseWriter, r *http.Request, next http.Handler, userID, sessionID, mintedAccess string) {
	if mintedAccess != "" {
		a.cookies.Set(w, a.cookies.AccessName, mintedAccess, int(a.codec.AccessTTL().Seconds()))
		a.logger.Debug("access token refreshed", zap.String("user_id", userID))
	}
	ctx := WithUserID(r.Context(), userID)
	if sessionID != "" {
		ctx = WithSessionID(ctx, sessionID)
	}
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (a *Auth) reject(w http.ResponseWriter, r *http.Request, detail string) {
	a.logger.Debug("request rejected",
		zap.String("path", r.URL.Path),
		zap.String("detail", detail))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
