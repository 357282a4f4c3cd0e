package localdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ganot/estimate-poker/internal/storage"
)

// LocalUserID is the id of every user the emulator signs in.
const LocalUserID = "local-user-id"

const audienceAuthenticated = "authenticated"

// AuthEvent names a session transition.
type AuthEvent string

const (
	EventSignedIn  AuthEvent = "SIGNED_IN"
	EventSignedOut AuthEvent = "SIGNED_OUT"
)

// User is the identity issued on sign in.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
	Aud       string `json:"aud"`
	Role      string `json:"role"`
}

// Session wraps the signed-in user.
type Session struct {
	User User `json:"user"`
}

// AuthListener is notified of session transitions. session is nil on
// sign out.
type AuthListener func(event AuthEvent, session *Session)

type authDocument struct {
	User *User `json:"user"`
}

type listenerEntry struct {
	id uint64
	fn AuthListener
}

// Auth emulates a sign-in service. Credentials are accepted as given; only
// the current user is persisted.
type Auth struct {
	backend storage.Backend
	logger  *slog.Logger
	clock   func() time.Time

	mu        sync.Mutex
	user      *User
	listeners []listenerEntry
	nextID    uint64
}

func (a *Auth) load(ctx context.Context) error {
	raw, ok, err := a.backend.Get(ctx, AuthKey)
	if err != nil {
		return fmt.Errorf("loading %s: %w", AuthKey, err)
	}
	doc, err := decodeAuth(raw, ok)
	if err != nil {
		return err
	}
	a.user = doc.User
	return nil
}

func decodeAuth(raw []byte, ok bool) (authDocument, error) {
	var doc authDocument
	if !ok {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, AuthKey, err)
	}
	return doc, nil
}

func (a *Auth) persistLocked(ctx context.Context, user *User) error {
	raw, err := json.Marshal(authDocument{User: user})
	if err != nil {
		return fmt.Errorf("encoding %s: %w", AuthKey, err)
	}
	if err := a.backend.Set(context.WithoutCancel(ctx), AuthKey, raw); err != nil {
		return fmt.Errorf("persisting %s: %w", AuthKey, err)
	}
	return nil
}

// SignIn signs in as email. The password is not checked.
func (a *Auth) SignIn(ctx context.Context, email, _ string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user := &User{
		ID:        LocalUserID,
		Email:     email,
		CreatedAt: a.clock().UTC().Format(TimeLayout),
		Aud:       audienceAuthenticated,
		Role:      audienceAuthenticated,
	}

	a.mu.Lock()
	if err := a.persistLocked(ctx, user); err != nil {
		a.mu.Unlock()
		return nil, err
	}
	a.user = user
	listeners := a.snapshotListenersLocked()
	a.mu.Unlock()

	a.logger.Info("signed in", "user_id", user.ID, "email", user.Email)
	session := &Session{User: *user}
	a.notify(listeners, EventSignedIn, session)
	return &Session{User: *user}, nil
}

// SignUp registers email and signs in. It behaves exactly like SignIn.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return a.SignIn(ctx, email, password)
}

// SignOut clears the session.
func (a *Auth) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	if err := a.persistLocked(ctx, nil); err != nil {
		a.mu.Unlock()
		return err
	}
	a.user = nil
	listeners := a.snapshotListenersLocked()
	a.mu.Unlock()

	a.logger.Info("signed out")
	a.notify(listeners, EventSignedOut, nil)
	return nil
}

// GetSession returns the current session, or nil when signed out.
func (a *Auth) GetSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return nil, nil
	}
	return &Session{User: *a.user}, nil
}

// RequireSession is GetSession for callers acting on behalf of a user.
func (a *Auth) RequireSession(ctx context.Context) (*Session, error) {
	session, err := a.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotSignedIn
	}
	return session, nil
}

// OnAuthChange registers listener and returns a function that removes it.
// Listeners live in memory only.
func (a *Auth) OnAuthChange(listener AuthListener) (unsubscribe func()) {
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, listenerEntry{id: id, fn: listener})
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, l := range a.listeners {
				if l.id == id {
					a.listeners = append(a.listeners[:i:i], a.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Reload re-reads the auth document and notifies listeners when the user
// changed outside this process.
func (a *Auth) Reload(ctx context.Context) error {
	a.mu.Lock()
	raw, ok, err := a.backend.Get(ctx, AuthKey)
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("reloading %s: %w", AuthKey, err)
	}
	doc, err := decodeAuth(raw, ok)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	if sameUser(a.user, doc.User) {
		a.mu.Unlock()
		return nil
	}
	a.user = doc.User
	listeners := a.snapshotListenersLocked()
	a.mu.Unlock()

	if doc.User == nil {
		a.notify(listeners, EventSignedOut, nil)
		return nil
	}
	a.notify(listeners, EventSignedIn, &Session{User: *doc.User})
	return nil
}

func sameUser(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (a *Auth) snapshotListenersLocked() []AuthListener {
	out := make([]AuthListener, len(a.listeners))
	for i, l := range a.listeners {
		out[i] = l.fn
	}
	return out
}

func (a *Auth) notify(listeners []AuthListener, event AuthEvent, session *Session) {
	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error("auth listener panicked", "event", event, "panic", fmt.Sprint(r))
				}
			}()
			var s *Session
			if session != nil {
				copied := *session
				s = &copied
			}
			fn(event, s)
		}()
	}
}
