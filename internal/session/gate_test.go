package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/status"
)

type fakeAuth struct {
	emailByUsername map[string]string
	signInErr       error
	signUpErr       error
	profileErr      error

	signedInEmail   string
	insertedProfile platform.Profile
	signedOut       bool
}

func (f *fakeAuth) SignUp(_ context.Context, email, _ string, _ map[string]any) (*platform.Session, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &platform.Session{AccessToken: "tok", User: platform.User{ID: "new-user", Email: email}}, nil
}

func (f *fakeAuth) SignInWithPassword(_ context.Context, email, _ string) (*platform.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.signedInEmail = email
	return &platform.Session{AccessToken: "tok", User: platform.User{ID: "user-1", Email: email}}, nil
}

func (f *fakeAuth) SignOut(_ context.Context) error {
	f.signedOut = true
	return nil
}

func (f *fakeAuth) LookupEmailByUsername(_ context.Context, username string) (string, error) {
	email, ok := f.emailByUsername[username]
	if !ok {
		return "", errors.New("no rows")
	}
	return email, nil
}

func (f *fakeAuth) InsertProfile(_ context.Context, p platform.Profile) error {
	f.insertedProfile = p
	return f.profileErr
}

func newTestGate(auth *fakeAuth) (*Gate, *bus.Bus) {
	b := bus.New()
	return NewGate(auth, status.NewMachine(b), b, nil), b
}

func TestSignInWithEmail(t *testing.T) {
	auth := &fakeAuth{}
	gate, b := newTestGate(auth)
	events, unsub := b.Subscribe("session.signed_in", 4)
	defer unsub()

	if err := gate.SignIn(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatal(err)
	}
	if auth.signedInEmail != "a@b.com" {
		t.Errorf("signed in with %q", auth.signedInEmail)
	}
	if !gate.Authenticated() || gate.UserID() != "user-1" {
		t.Errorf("gate not established: %q", gate.UserID())
	}
	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("no signed_in event")
	}
}

func TestSignInResolvesUsername(t *testing.T) {
	auth := &fakeAuth{emailByUsername: map[string]string{"sandro": "s@b.com"}}
	gate, _ := newTestGate(auth)

	if err := gate.SignIn(context.Background(), "sandro", "pw"); err != nil {
		t.Fatal(err)
	}
	if auth.signedInEmail != "s@b.com" {
		t.Errorf("resolved to %q, want s@b.com", auth.signedInEmail)
	}
}

func TestSignInUnknownUsername(t *testing.T) {
	auth := &fakeAuth{emailByUsername: map[string]string{}}
	gate, _ := newTestGate(auth)

	err := gate.SignIn(context.Background(), "ghost", "pw")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if gate.Authenticated() {
		t.Error("gate established after failed lookup")
	}
}

func TestSignInBadCredentials(t *testing.T) {
	auth := &fakeAuth{signInErr: &platform.APIError{Status: 400, Message: "Invalid login credentials"}}
	gate, _ := newTestGate(auth)

	err := gate.SignIn(context.Background(), "a@b.com", "wrong")
	if err == nil || err.Error() != "invalid credentials" {
		t.Fatalf("err = %v, want friendly message", err)
	}
	if gate.Authenticated() {
		t.Error("gate established after rejected credentials")
	}
}

func TestSignUpCreatesProfileRow(t *testing.T) {
	auth := &fakeAuth{}
	gate, _ := newTestGate(auth)

	if err := gate.SignUp(context.Background(), "n@b.com", "nina", "pw"); err != nil {
		t.Fatal(err)
	}
	p := auth.insertedProfile
	if p.ID != "new-user" || p.Username != "nina" || p.Email != "n@b.com" {
		t.Errorf("profile = %+v", p)
	}
	if p.AvatarURL == "" {
		t.Error("signup should assign a default avatar")
	}
	if !gate.Authenticated() {
		t.Error("gate not established after signup")
	}
}

func TestSignUpSurvivesProfileFailure(t *testing.T) {
	auth := &fakeAuth{profileErr: errors.New("duplicate key")}
	gate, _ := newTestGate(auth)

	if err := gate.SignUp(context.Background(), "n@b.com", "nina", "pw"); err != nil {
		t.Fatalf("profile-row failure must not fail signup: %v", err)
	}
	if !gate.Authenticated() {
		t.Error("gate not established")
	}
}

func TestSignOut(t *testing.T) {
	auth := &fakeAuth{}
	gate, b := newTestGate(auth)
	if err := gate.SignIn(context.Background(), "a@b.com", "pw"); err != nil {
		t.Fatal(err)
	}

	events, unsub := b.Subscribe("session.signed_out", 4)
	defer unsub()

	gate.SignOut(context.Background())
	if gate.Authenticated() || gate.UserID() != "" {
		t.Error("gate still established")
	}
	if !auth.signedOut {
		t.Error("platform sign-out not called")
	}
	select {
	case <-events:
	case <-time.After(time.Second):
		t.Fatal("no signed_out event")
	}

	// Signing out twice is a no-op.
	gate.SignOut(context.Background())
}
