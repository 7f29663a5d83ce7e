// Package handler exposes user registration, login, logout, and lookup over
// HTTP. All bodies are JSON; errors are rendered as {"detail": "..."}.
package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"intelliflow/backend/internal/apperr"
	"intelliflow/backend/internal/server/middleware"
	"intelliflow/backend/internal/user/domain"
	"intelliflow/backend/internal/user/service"
)

type registerRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public user shape. It never carries the password hash.
type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		IsBlocked: u.IsBlocked,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Handler serves the /api/v1/user endpoints.
type Handler struct {
	svc       *service.Service
	cookies   middleware.CookiePolicy
	accessTTL time.Duration
	logger    *zap.Logger
}

// New returns a user handler. accessTTL controls the max-age of the
// access-token cookie set at login.
func New(svc *service.Service, cookies middleware.CookiePolicy, accessTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, cookies: cookies, accessTTL: accessTTL, logger: logger}
}

// Routes registers the handler's endpoints on the given router, which is
// expected to be the /api/v1/user subrouter.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodPost)
	r.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.GetByID).Methods(http.MethodGet)
}

// Register creates a new user account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.BadRequest("Invalid request body."))
		return
	}

	u, err := h.svc.Register(r.Context(), &domain.User{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toUserResponse(u))
}

// Login verifies credentials and, on success, sets the access-token,
// refresh-token, and session-id cookies before returning the user.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperr.BadRequest("Invalid request body."))
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, apperr.New(http.StatusUnprocessableEntity, "Email and password required."))
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password, clientIP(r), r.UserAgent())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if res == nil {
		h.writeError(w, apperr.Unauthorized("Invalid credentials or user blocked/inactive."))
		return
	}

	h.cookies.Set(w, h.cookies.AccessName, res.AccessToken, int(h.accessTTL.Seconds()))
	h.cookies.Set(w, h.cookies.RefreshName, res.RefreshToken, middleware.SessionCookieMaxAge)
	h.cookies.Set(w, h.cookies.SessionName, res.SessionID, middleware.SessionCookieMaxAge)
	h.writeJSON(w, http.StatusOK, toUserResponse(res.User))
}

// Logout revokes the session named by the session cookie and expires all auth
// cookies. Succeeds even when no session cookie is present so stale clients
// can always clear themselves.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if sid, ok := middleware.GetSessionID(r.Context()); ok {
		if err := h.svc.RevokeSession(r.Context(), sid); err != nil {
			h.writeError(w, err)
			return
		}
	} else if c, err := r.Cookie(h.cookies.SessionName); err == nil {
		if err := h.svc.RevokeSession(r.Context(), c.Value); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.cookies.ExpireAll(w)
	h.writeJSON(w, http.StatusOK, map[string]string{"detail": "Logged out."})
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.writeError(w, apperr.Unauthorized("Unauthorized."))
		return
	}
	u, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserResponse(u))
}

// GetByID returns the user with the given id.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": apperr.DetailOf(err)})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the client when behind a proxy.
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
