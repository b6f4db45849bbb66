// Package convo holds the open two-party conversation: its fetched
// history merged with the live feed, sends, and reactions.
package convo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/content"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/session"
	"go.uber.org/zap"
)

// ErrNoActiveConversation is returned by operations needing an open
// conversation.
var ErrNoActiveConversation = errors.New("no active conversation")

// LoadState distinguishes an empty thread from a failed history fetch.
type LoadState int

const (
	LoadIdle LoadState = iota
	Loading
	Loaded
	LoadFailed
)

// Backend is the message surface of the platform.
type Backend interface {
	MessagesBetween(ctx context.Context, a, b string) ([]platform.Message, error)
	InsertMessage(ctx context.Context, nm platform.NewMessage) error
	UpdateReactions(ctx context.Context, id platform.MessageID, reactions map[string]string) error
}

// Store is the active conversation. At most one conversation is open at
// a time; feed events scoped to other counterparts only touch the
// activity index, never this list.
type Store struct {
	backend Backend
	bus     *bus.Bus
	logger  *zap.Logger

	mu          sync.RWMutex
	selfID      string
	counterpart string
	messages    []platform.Message
	state       LoadState
}

// NewStore creates a store with no open conversation.
func NewStore(backend Backend, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, bus: b, logger: logger}
}

// SetSelf binds the store to the signed-in identity.
func (s *Store) SetSelf(selfID string) {
	s.mu.Lock()
	s.selfID = selfID
	s.mu.Unlock()
}

// Counterpart returns the open conversation's counterpart id, or empty.
func (s *Store) Counterpart() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counterpart
}

// Messages returns a snapshot of the open thread in creation order.
func (s *Store) Messages() []platform.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]platform.Message(nil), s.messages...)
}

// State returns the history load state.
func (s *Store) State() LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Open switches the active conversation and fetches its history. Live
// inserts racing the fetch are merged, not lost: anything already
// appended for this counterpart is folded into the fetched list.
func (s *Store) Open(ctx context.Context, counterpartID string) error {
	s.mu.Lock()
	selfID := s.selfID
	s.counterpart = counterpartID
	s.messages = nil
	s.state = Loading
	s.mu.Unlock()
	s.changed()

	history, err := s.backend.MessagesBetween(ctx, selfID, counterpartID)

	s.mu.Lock()
	if s.counterpart != counterpartID {
		// The user already moved on; drop this fetch.
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.state = LoadFailed
		s.mu.Unlock()
		s.changed()
		return fmt.Errorf("open conversation: %w", err)
	}
	raced := s.messages
	s.messages = history
	for _, m := range raced {
		s.insertLocked(m)
	}
	s.state = Loaded
	s.mu.Unlock()
	s.changed()
	return nil
}

// Close clears the open conversation without touching the backend.
func (s *Store) Close() {
	s.mu.Lock()
	s.counterpart = ""
	s.messages = nil
	s.state = LoadIdle
	s.mu.Unlock()
	s.changed()
}

// Send submits plain text to the open counterpart. The message appears
// in the thread only when its row echoes back on the feed.
func (s *Store) Send(ctx context.Context, text string) error {
	return s.SendContent(ctx, content.Text(text))
}

// SendContent submits any content variant to the open counterpart.
func (s *Store) SendContent(ctx context.Context, c content.Content) error {
	s.mu.RLock()
	selfID := s.selfID
	counterpart := s.counterpart
	s.mu.RUnlock()
	if selfID == "" {
		return session.ErrNotSignedIn
	}
	if counterpart == "" {
		return ErrNoActiveConversation
	}

	nm := platform.NewMessage{
		Content:     c.Encode(),
		SenderID:    selfID,
		RecipientID: counterpart,
	}
	if err := s.backend.InsertMessage(ctx, nm); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// React upserts the signed-in user's reaction on a message in the open
// thread. The change is applied optimistically and rolled back if the
// platform rejects it.
func (s *Store) React(ctx context.Context, id platform.MessageID, emoji string) error {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("react: message %s not in open conversation", id)
	}
	selfID := s.selfID
	prev, hadPrev := s.messages[idx].Reactions[selfID]

	updated := make(map[string]string, len(s.messages[idx].Reactions)+1)
	for k, v := range s.messages[idx].Reactions {
		updated[k] = v
	}
	updated[selfID] = emoji
	s.messages[idx].Reactions = updated
	s.mu.Unlock()
	s.changed()

	if err := s.backend.UpdateReactions(ctx, id, updated); err != nil {
		s.mu.Lock()
		if idx := s.indexOfLocked(id); idx >= 0 {
			rolled := make(map[string]string, len(s.messages[idx].Reactions))
			for k, v := range s.messages[idx].Reactions {
				rolled[k] = v
			}
			if hadPrev {
				rolled[selfID] = prev
			} else {
				delete(rolled, selfID)
			}
			s.messages[idx].Reactions = rolled
		}
		s.mu.Unlock()
		s.changed()
		return fmt.Errorf("react: %w", err)
	}
	return nil
}

// Ingest applies a feed insert. Rows scoped to another counterpart are
// ignored here; the activity index sees every row regardless.
func (s *Store) Ingest(msg platform.Message) {
	s.mu.Lock()
	if s.counterpart == "" || msg.Counterpart(s.selfID) != s.counterpart {
		s.mu.Unlock()
		return
	}
	appended := s.insertLocked(msg)
	s.mu.Unlock()
	if appended {
		s.changed()
	}
}

// IngestUpdate applies a feed update in place. An update never reorders
// the thread; rows not present are dropped.
func (s *Store) IngestUpdate(msg platform.Message) {
	s.mu.Lock()
	idx := s.indexOfLocked(msg.ID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.messages[idx] = msg
	s.mu.Unlock()
	s.changed()
}

// Reset clears everything on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.selfID = ""
	s.counterpart = ""
	s.messages = nil
	s.state = LoadIdle
	s.mu.Unlock()
}

// insertLocked places msg at its creation-order position, skipping ids
// already present. Reports whether the list changed.
func (s *Store) insertLocked(msg platform.Message) bool {
	if s.indexOfLocked(msg.ID) >= 0 {
		return false
	}
	pos := len(s.messages)
	for pos > 0 && msg.Before(s.messages[pos-1]) {
		pos--
	}
	s.messages = append(s.messages, platform.Message{})
	copy(s.messages[pos+1:], s.messages[pos:])
	s.messages[pos] = msg
	return true
}

func (s *Store) indexOfLocked(id platform.MessageID) int {
	for i := range s.messages {
		if s.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) changed() {
	if s.bus != nil {
		s.bus.Emit(bus.KindConvoChanged, nil)
	}
}

// Listen consumes feed events until the returned stop function is
// called. Inserts and updates flow into the open thread.
func (s *Store) Listen() (stop func()) {
	events, unsub := s.bus.Subscribe("feed.message", 64)
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case evt := <-events:
				msg, ok := evt.Payload.(platform.Message)
				if !ok {
					continue
				}
				switch evt.Kind {
				case bus.KindFeedInsert:
					s.Ingest(msg)
				case bus.KindFeedUpdate:
					s.IngestUpdate(msg)
				}
			case <-quit:
				return
			}
		}
	}()
	return func() {
		unsub()
		close(quit)
		<-done
	}
}
