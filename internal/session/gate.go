// Package session tracks whether a user identity is established and
// gates every other component on it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/status"
	"go.uber.org/zap"
)

// ErrNotSignedIn is returned by operations requiring an identity.
var ErrNotSignedIn = errors.New("not signed in")

// ErrUserNotFound is returned when a username login finds no profile.
var ErrUserNotFound = errors.New("user not found")

// Authenticator is the auth surface of the platform.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*platform.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*platform.Session, error)
	SignOut(ctx context.Context) error
	LookupEmailByUsername(ctx context.Context, username string) (string, error)
	InsertProfile(ctx context.Context, p platform.Profile) error
}

// Gate holds the current session and publishes session lifecycle events.
type Gate struct {
	auth    Authenticator
	machine *status.Machine
	bus     *bus.Bus
	logger  *zap.Logger

	mu      sync.RWMutex
	session *platform.Session
}

// NewGate creates a signed-out session gate.
func NewGate(auth Authenticator, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{auth: auth, machine: machine, bus: b, logger: logger}
}

// Authenticated reports whether an identity is established.
func (g *Gate) Authenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session != nil
}

// UserID returns the signed-in identity id, or empty when signed out.
func (g *Gate) UserID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.session == nil {
		return ""
	}
	return g.session.User.ID
}

// Session returns the current session, or nil when signed out.
func (g *Gate) Session() *platform.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// SignIn establishes a session from a hybrid identity: an email, or a
// username resolved to its email through the profile directory. Auth
// failures come back as readable messages and leave the gate signed out.
func (g *Gate) SignIn(ctx context.Context, identity, password string) error {
	_ = g.machine.Transition(status.Authenticating)

	email := strings.TrimSpace(identity)
	if !strings.Contains(email, "@") {
		resolved, err := g.auth.LookupEmailByUsername(ctx, email)
		if err != nil {
			_ = g.machine.Transition(status.SignedOut)
			g.logger.Info("username lookup missed", zap.String("username", email), zap.Error(err))
			return ErrUserNotFound
		}
		email = resolved
	}

	sess, err := g.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		_ = g.machine.Transition(status.SignedOut)
		return friendlyAuthError(err)
	}

	g.establish(sess)
	return nil
}

// SignUp registers an identity and its profile row, then establishes
// the session. A profile-row failure is logged but does not block the
// freshly created identity.
func (g *Gate) SignUp(ctx context.Context, email, username, password string) error {
	_ = g.machine.Transition(status.Authenticating)

	sess, err := g.auth.SignUp(ctx, email, password, map[string]any{"username": username})
	if err != nil {
		_ = g.machine.Transition(status.SignedOut)
		return friendlyAuthError(err)
	}

	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	profile := platform.Profile{
		ID:        sess.User.ID,
		Email:     email,
		Username:  username,
		AvatarURL: DefaultAvatarURL(username),
	}
	if err := g.auth.InsertProfile(ctx, profile); err != nil {
		g.logger.Error("profile row creation failed", zap.String("user", sess.User.ID), zap.Error(err))
	}

	g.establish(sess)
	return nil
}

// SignOut releases the platform session and publishes the sign-out
// event. Subscribers reset all in-memory state before the auth screen
// renders again.
func (g *Gate) SignOut(ctx context.Context) {
	g.mu.Lock()
	wasSignedIn := g.session != nil
	g.session = nil
	g.mu.Unlock()

	if !wasSignedIn {
		return
	}
	if err := g.auth.SignOut(ctx); err != nil {
		g.logger.Warn("platform sign-out failed", zap.Error(err))
	}
	_ = g.machine.Transition(status.SignedOut)
	g.bus.Emit(bus.KindSessionSignedOut, nil)
}

func (g *Gate) establish(sess *platform.Session) {
	g.mu.Lock()
	g.session = sess
	g.mu.Unlock()

	_ = g.machine.Transition(status.Loading)
	g.bus.Emit(bus.KindSessionSignedIn, sess)
}

// DefaultAvatarURL is the generated avatar assigned at signup.
func DefaultAvatarURL(username string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&background=0A84FF&color=fff", username)
}

// friendlyAuthError maps the platform's credential rejection to a
// message fit for the auth screen.
func friendlyAuthError(err error) error {
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) {
		if strings.Contains(strings.ToLower(apiErr.Message), "invalid login credentials") {
			return errors.New("invalid credentials")
		}
		if apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
	}
	return err
}
