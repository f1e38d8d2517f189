package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mtlprog/taskflow/internal/accounts"
	"github.com/mtlprog/taskflow/internal/handler/dto"
)

type contextKey string

const (
	// ContextKeyClaims is the key for storing token claims in request context.
	ContextKeyClaims contextKey = "claims"
)

// Authenticator resolves a bearer token to the claims of an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*accounts.Claims, error)
}

// AuthMiddleware handles Bearer token authentication.
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate validates the Bearer token and adds its claims to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			unauthorized(w, "invalid authorization header format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			unauthorized(w, "missing token")
			return
		}

		claims, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			status, code, message := dto.MapDomainError(err)
			writeError(w, status, code, message)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext retrieves the authenticated user's ID from request context.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := ctx.Value(ContextKeyClaims).(*accounts.Claims)
	if !ok || claims == nil {
		return uuid.Nil, accounts.ErrInvalidToken
	}
	return claims.UserID, nil
}

// unauthorized reports a malformed or missing header with the same code the
// token check uses, so clients see one code for every token failure.
func unauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, accounts.ErrInvalidToken.Code, message)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dto.NewErrorResponse(code, message)); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
