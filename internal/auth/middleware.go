package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/notekeep/internal/apperror"
	"github.com/sakif/notekeep/internal/model"
)

// contextKey is private so no other package can read or shadow the values.
type contextKey string

const userKey contextKey = "user"

// UserLookup resolves a token subject to a stored user. It is satisfied by
// repository.UserRepository and by service.AuthService.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth rejects any request without a valid bearer token for an
// existing user, and stores that user in the request context otherwise.
//
//	Authorization: Bearer <jwt>
//
// Every rejection answers 401 with the same body, so a client cannot tell an
// expired token from a deleted account. A store failure during the lookup is
// a 500.
func RequireAuth(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				denied(w, http.StatusUnauthorized, "Not authorized")
				return
			}

			userID, err := tokens.Validate(raw)
			if err != nil {
				logger.Debug("rejected token", slog.String("error", err.Error()))
				denied(w, http.StatusUnauthorized, "Not authorized")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					denied(w, http.StatusUnauthorized, "Not authorized")
					return
				}
				logger.Error("resolving token subject",
					slog.String("user_id", userID),
					slog.String("error", err.Error()),
				)
				denied(w, http.StatusInternalServerError, "An internal error occurred")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// WithUser returns a copy of ctx carrying user. Handler tests use it to skip
// the token round trip.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by RequireAuth.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// UserIDFromContext returns the authenticated user's id, or ("", false) when
// the request did not pass through RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok || u.ID == "" {
		return "", false
	}
	return u.ID, true
}

// bearerToken extracts the token from the Authorization header. The scheme is
// matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func denied(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}{false, message})
}
