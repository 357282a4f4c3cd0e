package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ganot/estimate-poker/internal/localdb"
)

type contextKey int

const (
	sessionKey contextKey = iota
)

// getSession extracts the signed-in session from context, or nil.
func getSession(ctx context.Context) *localdb.Session {
	v, _ := ctx.Value(sessionKey).(*localdb.Session)
	return v
}

// getUserID returns the signed-in user id, or "".
func getUserID(ctx context.Context) string {
	if s := getSession(ctx); s != nil {
		return s.User.ID
	}
	return ""
}

// requireUserID returns the signed-in user id or localdb.ErrNotSignedIn.
func requireUserID(ctx context.Context) (string, error) {
	id := getUserID(ctx)
	if id == "" {
		return "", localdb.ErrNotSignedIn
	}
	return id, nil
}

// sessionMiddleware attaches the current session to tool calls. Tools that
// act for a user check it themselves, so signed-out calls still reach
// sign_in and the public share tools.
func sessionMiddleware(auth SessionProvider, logger *slog.Logger) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" || auth == nil {
				return next(ctx, method, req)
			}

			session, err := auth.GetSession(ctx)
			if err != nil {
				logger.Warn("resolving session", "method", method, "error", err)
				return next(ctx, method, req)
			}
			if session != nil {
				ctx = context.WithValue(ctx, sessionKey, session)
			}
			return next(ctx, method, req)
		}
	}
}
