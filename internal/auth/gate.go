// Package auth identifies callers from gateway-supplied headers and gates
// user and moderator routes.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/review-service/pkg/errors"
	"github.com/utafrali/review-service/pkg/httputil"
	"github.com/utafrali/review-service/pkg/logger"
)

const (
	UserIDHeader     = "X-User-ID"
	AdminTokenHeader = "X-Admin-Token"
)

type contextKey struct{}

// WithUserID stores the authenticated caller in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserIDFromContext returns the caller stored by the User middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Gate checks the two caller schemes: an opaque user id trusted as
// presented, and a shared moderator secret.
type Gate struct {
	adminDigest [sha256.Size]byte
	adminSet    bool
	logger      *slog.Logger
}

// NewGate builds a gate for adminToken. An empty token rejects every
// moderator call.
func NewGate(adminToken string, logger *slog.Logger) *Gate {
	return &Gate{
		adminDigest: sha256.Sum256([]byte(adminToken)),
		adminSet:    adminToken != "",
		logger:      logger,
	}
}

// Identify returns the caller's user id or an Unauthenticated error.
func (g *Gate) Identify(r *http.Request) (string, error) {
	userID := r.Header.Get(UserIDHeader)
	if userID == "" {
		return "", apperrors.Unauthenticated(UserIDHeader + " header is required")
	}
	return userID, nil
}

// AuthorizeModerator returns a Forbidden error unless the request carries
// the configured moderator token. Digests are compared in constant time.
func (g *Gate) AuthorizeModerator(r *http.Request) error {
	presented := r.Header.Get(AdminTokenHeader)
	if !g.adminSet || presented == "" {
		return apperrors.Forbidden("moderator token required")
	}
	digest := sha256.Sum256([]byte(presented))
	if subtle.ConstantTimeCompare(digest[:], g.adminDigest[:]) != 1 {
		return apperrors.Forbidden("moderator token invalid")
	}
	return nil
}

// User rejects requests without a caller id with 401 and stores the id in
// the request context.
func (g *Gate) User(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := g.Identify(r)
		if err != nil {
			httputil.WriteError(w, r, err, g.logger)
			return
		}
		ctx := logger.WithUserID(WithUserID(r.Context(), userID), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Moderator rejects requests without a valid moderator token with 403.
func (g *Gate) Moderator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.AuthorizeModerator(r); err != nil {
			logger.FromContext(r.Context()).WarnContext(r.Context(), "moderator call rejected",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			httputil.WriteError(w, r, err, g.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
