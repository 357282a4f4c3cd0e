package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ganot/estimate-poker/internal/localdb"
)

// SessionSource reports the signed-in session.
type SessionSource interface {
	RequireSession(ctx context.Context) (*localdb.Session, error)
}

// RequireSession rejects requests made while nobody is signed in and stores
// the session in the request context.
func RequireSession(source SessionSource, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := source.RequireSession(r.Context())
			switch {
			case errors.Is(err, localdb.ErrNotSignedIn):
				WriteError(w, http.StatusUnauthorized, CodeNotSignedIn, "sign in first")
				return
			case err != nil:
				logger.Error("resolving session", "path", r.URL.Path, "error", err)
				WriteError(w, http.StatusInternalServerError, CodeInternal, "could not resolve session")
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), session)))
		})
	}
}
