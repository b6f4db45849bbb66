// Package typing implements the outgoing typing signal with its idle
// debounce and the incoming per-contact typing tracker.
package typing

import (
	"sync"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"go.uber.org/zap"
)

// Sender delivers a typing flag to one recipient.
type Sender interface {
	SendTyping(recipientID string, typing bool) error
}

// Broadcaster debounces keystrokes into at most one "typing" broadcast
// per burst, with a trailing "stopped" after the idle window.
type Broadcaster struct {
	sender Sender
	idle   time.Duration
	logger *zap.Logger

	mu        sync.Mutex
	recipient string
	active    bool
	timer     *time.Timer
}

// NewBroadcaster creates a broadcaster with the given idle window.
func NewBroadcaster(sender Sender, idle time.Duration, logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{sender: sender, idle: idle, logger: logger}
}

// SetRecipient targets the broadcaster at the open conversation. A
// pending "stopped" for the previous recipient fires immediately.
func (b *Broadcaster) SetRecipient(id string) {
	b.mu.Lock()
	prev := b.recipient
	wasActive := b.active
	b.recipient = id
	b.active = false
	b.stopTimerLocked()
	b.mu.Unlock()

	if wasActive && prev != "" && prev != id {
		b.send(prev, false)
	}
}

// Keystroke reports composer input. The first keystroke of a burst
// broadcasts "typing"; every keystroke pushes the idle deadline out.
func (b *Broadcaster) Keystroke() {
	b.mu.Lock()
	if b.recipient == "" {
		b.mu.Unlock()
		return
	}
	first := !b.active
	b.active = true
	recipient := b.recipient

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.idle, b.idleExpired)
	b.mu.Unlock()

	if first {
		b.send(recipient, true)
	}
}

// MessageSent clears the typing state immediately: a delivered message
// supersedes the burst.
func (b *Broadcaster) MessageSent() {
	b.mu.Lock()
	wasActive := b.active
	recipient := b.recipient
	b.active = false
	b.stopTimerLocked()
	b.mu.Unlock()

	if wasActive && recipient != "" {
		b.send(recipient, false)
	}
}

// Reset drops all typing state without broadcasting. Used on sign-out.
func (b *Broadcaster) Reset() {
	b.mu.Lock()
	b.recipient = ""
	b.active = false
	b.stopTimerLocked()
	b.mu.Unlock()
}

func (b *Broadcaster) idleExpired() {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return
	}
	b.active = false
	recipient := b.recipient
	b.timer = nil
	b.mu.Unlock()

	if recipient != "" {
		b.send(recipient, false)
	}
}

func (b *Broadcaster) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Broadcaster) send(recipient string, typing bool) {
	if err := b.sender.SendTyping(recipient, typing); err != nil {
		b.logger.Debug("typing broadcast failed", zap.Error(err))
	}
}

// Tracker records incoming typing flags per contact, verbatim. The
// sender side owns the debounce; the receiver just mirrors the flag.
type Tracker struct {
	bus *bus.Bus

	mu     sync.RWMutex
	typing map[string]bool
}

// NewTracker creates an empty typing tracker.
func NewTracker(b *bus.Bus) *Tracker {
	return &Tracker{bus: b, typing: make(map[string]bool)}
}

// Set records the typing flag for a contact and publishes the change.
func (t *Tracker) Set(fromID string, typing bool) {
	t.mu.Lock()
	if t.typing[fromID] == typing {
		t.mu.Unlock()
		return
	}
	if typing {
		t.typing[fromID] = true
	} else {
		delete(t.typing, fromID)
	}
	t.mu.Unlock()

	if t.bus != nil {
		t.bus.Emit(bus.KindTypingChanged, fromID)
	}
}

// IsTyping reports whether a contact is currently typing.
func (t *Tracker) IsTyping(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.typing[id]
}

// Reset clears all typing flags on sign-out.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.typing = make(map[string]bool)
	t.mu.Unlock()
}
