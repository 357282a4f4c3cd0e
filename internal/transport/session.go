package transport

import (
	"context"

	"github.com/ganot/estimate-poker/internal/localdb"
)

type sessionKey struct{}

// SessionFromContext returns the signed-in session stored by
// RequireSession, if present.
func SessionFromContext(ctx context.Context) (*localdb.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*localdb.Session)
	return session, ok && session != nil
}

func withSession(ctx context.Context, session *localdb.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}
