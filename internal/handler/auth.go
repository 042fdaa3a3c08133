package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/auth"
	"github.com/sakif/notekeep/internal/service"
)

const stateCookie = "oauth_state"

// GitHubOAuth is the part of auth.GitHubProvider the handler uses.
type GitHubOAuth interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves /api/auth: password register/login, the current user,
// and GitHub sign-in when it is configured.
type AuthHandler struct {
	auth   *service.AuthService
	github GitHubOAuth // nil when GitHub sign-in is disabled
	logger *slog.Logger
}

func NewAuthHandler(authSvc *service.AuthService, github GitHubOAuth, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authSvc, github: github, logger: logger}
}

// PublicRoutes mounts the endpoints that need no token.
func (h *AuthHandler) PublicRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	if h.github != nil {
		r.Get("/github/login", h.HandleGitHubLogin)
		r.Get("/github/callback", h.HandleGitHubCallback)
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister: POST /api/auth/register → 201 with token and user.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeAuthResult(w, http.StatusCreated, "User registered", res)
}

// HandleLogin: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeAuthResult(w, http.StatusOK, "Logged in", res)
}

// HandleMe: GET /api/auth/me. Requires RequireAuth.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.Unauthenticated("Not authorized"))
		return
	}
	pub := user.Public()
	writeJSON(w, http.StatusOK, Envelope{Success: true, User: &pub})
}

// HandleGitHubLogin: GET /api/auth/github/login
//
// The random state goes into a short-lived HttpOnly cookie and into the
// authorization URL; the callback accepts only a matching pair.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/auth/github",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback: GET /api/auth/github/callback?code=...&state=...
//
// Answers with the same envelope as password login, so API clients treat
// both the same way.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || q.Get("state") != cookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeError(w, r, h.logger, apperror.ValidationFailed("state", "Invalid OAuth state"))
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/api/auth/github", MaxAge: -1})

	if denied := q.Get("error"); denied != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", denied))
		writeError(w, r, h.logger, apperror.Unauthenticated("GitHub authorization denied"))
		return
	}

	code := q.Get("code")
	if code == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("code", "Missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.writeAuthResult(w, http.StatusOK, "Logged in", res)
}

func (h *AuthHandler) writeAuthResult(w http.ResponseWriter, status int, msg string, res *service.AuthResult) {
	pub := res.User.Public()
	writeJSON(w, status, Envelope{
		Success: true,
		Message: msg,
		Token:   res.Token,
		User:    &pub,
	})
}
