package status

import (
	"testing"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/bus"
)

func TestValidTransition(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != SignedOut {
		t.Fatalf("initial state = %s", m.Current())
	}
	if err := m.Transition(Authenticating); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Loading); err != nil {
		t.Fatal(err)
	}
	if err := m.Transition(Ready); err != nil {
		t.Fatal(err)
	}
	if m.Current() != Ready {
		t.Errorf("state = %s, want READY", m.Current())
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err == nil {
		t.Error("SIGNED_OUT -> READY should be rejected")
	}
}

func TestSignOutFromAnywhere(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Transition(Authenticating)
	_ = m.Transition(Loading)
	_ = m.Transition(Ready)
	if err := m.Transition(SignedOut); err != nil {
		t.Fatalf("READY -> SIGNED_OUT: %v", err)
	}
}

func TestTransitionPublishesEvent(t *testing.T) {
	b := bus.New()
	m := NewMachine(b)

	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	if err := m.Transition(Authenticating); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		change, ok := evt.Payload.(StatusChange)
		if !ok {
			t.Fatalf("payload type %T", evt.Payload)
		}
		if change.From != SignedOut || change.To != Authenticating {
			t.Errorf("change = %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for status event")
	}
}
