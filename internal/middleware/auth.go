package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/contentdesk/admin-api/internal/audit"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/model"
	"github.com/contentdesk/admin-api/internal/service"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// Identity is what downstream handlers see of the authenticated caller.
type Identity struct {
	ID   string
	Role model.Role
}

func GetIdentity(ctx context.Context) *Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(*Identity); ok {
		return identity
	}
	return nil
}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

type AccessVerifier interface {
	VerifyAccess(token string) (*service.AccessClaims, error)
}

type AdminFinder interface {
	FindByID(ctx context.Context, id string) (*model.AdminAccount, error)
}

// AuthMiddleware verifies the bearer access token and re-checks the live
// account on every request, so logout and deactivation take effect at once.
type AuthMiddleware struct {
	tokens AccessVerifier
	admins AdminFinder
}

func NewAuthMiddleware(tokens AccessVerifier, admins AdminFinder) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, admins: admins}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, apperrors.NoToken())
			return
		}

		claims, err := m.tokens.VerifyAccess(token)
		if err != nil {
			writeError(w, apperrors.InvalidOrExpiredToken())
			return
		}

		admin, err := m.admins.FindByID(r.Context(), claims.Subject)
		if err != nil {
			log.Error().Err(err).Msg("auth middleware: database error")
			writeError(w, apperrors.StorageFailure(err))
			return
		}

		if admin == nil {
			writeError(w, apperrors.InvalidAccount())
			return
		}

		if !admin.IsActive {
			writeError(w, apperrors.AccountDisabled())
			return
		}

		if claims.TokenVersion != admin.TokenVersion {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventTokenInvalidated,
				AdminID: admin.ID,
			})
			writeError(w, apperrors.TokenInvalidated(http.StatusUnauthorized))
			return
		}

		ctx := WithIdentity(r.Context(), &Identity{ID: admin.ID, Role: admin.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
