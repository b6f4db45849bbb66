// Package feed turns the platform's realtime subscriptions into bus
// events: row changes touching the signed-in user and the ephemeral
// typing broadcasts addressed to them.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"go.uber.org/zap"
)

// dedupeWindow bounds how many recently seen insert ids are remembered.
const dedupeWindow = 512

const typingEvent = "typing"

// TypingSignal is the wire payload of a typing broadcast and the bus
// payload of KindFeedTyping.
type TypingSignal struct {
	From   string `json:"from"`
	Typing bool   `json:"typing"`
}

// Source is the realtime surface the stream consumes.
type Source interface {
	SubscribeChanges(ctx context.Context, table, filter string) (<-chan platform.ChangeEvent, func(), error)
	SubscribeBroadcast(ctx context.Context, name string) (<-chan platform.BroadcastEvent, func(), error)
}

// Stream fans the session's realtime subscriptions into the bus. One
// goroutine owns the fan-in, so event order within a subscription is
// preserved.
type Stream struct {
	source Source
	bus    *bus.Bus
	logger *zap.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	leaves   []func()
	seen     map[platform.MessageID]struct{}
	seenFIFO []platform.MessageID
}

// NewStream creates a stopped stream.
func NewStream(source Source, b *bus.Bus, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{source: source, bus: b, logger: logger}
}

// Start joins the session's three subscriptions: inbound rows, own-send
// echoes, and the typing broadcast addressed to selfID. It is an error
// to start a running stream.
func (s *Stream) Start(ctx context.Context, selfID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("feed: already started")
	}

	inbound, leaveIn, err := s.source.SubscribeChanges(ctx, "messages", "recipient_id=eq."+selfID)
	if err != nil {
		return fmt.Errorf("subscribe inbound: %w", err)
	}
	outbound, leaveOut, err := s.source.SubscribeChanges(ctx, "messages", "sender_id=eq."+selfID)
	if err != nil {
		leaveIn()
		return fmt.Errorf("subscribe outbound: %w", err)
	}
	typing, leaveTyping, err := s.source.SubscribeBroadcast(ctx, "typing:"+selfID)
	if err != nil {
		leaveIn()
		leaveOut()
		return fmt.Errorf("subscribe typing: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.leaves = []func(){leaveIn, leaveOut, leaveTyping}
	s.seen = make(map[platform.MessageID]struct{}, dedupeWindow)
	s.seenFIFO = s.seenFIFO[:0]

	go s.loop(loopCtx, inbound, outbound, typing)
	return nil
}

// Stop leaves all subscriptions and waits for the fan-in to drain.
func (s *Stream) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	leaves := s.leaves
	s.cancel = nil
	s.done = nil
	s.leaves = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	for _, leave := range leaves {
		leave()
	}
	cancel()
	<-done
}

func (s *Stream) loop(ctx context.Context, inbound, outbound <-chan platform.ChangeEvent, typing <-chan platform.BroadcastEvent) {
	defer close(s.done)
	for {
		select {
		case ce, ok := <-inbound:
			if !ok {
				inbound = nil
				continue
			}
			s.handleChange(ce)
		case ce, ok := <-outbound:
			if !ok {
				outbound = nil
				continue
			}
			s.handleChange(ce)
		case be, ok := <-typing:
			if !ok {
				typing = nil
				continue
			}
			s.handleBroadcast(be)
		case <-ctx.Done():
			return
		}
	}
}

// handleChange routes a row change. Inserts are deduped by id: a row
// between two contacts of the same account arrives on both change
// subscriptions, and a replay after a reconnect arrives again.
func (s *Stream) handleChange(ce platform.ChangeEvent) {
	switch ce.Type {
	case platform.ChangeInsert:
		if s.markSeen(ce.Record.ID) {
			return
		}
		s.bus.Emit(bus.KindFeedInsert, ce.Record)
	case platform.ChangeUpdate:
		s.bus.Emit(bus.KindFeedUpdate, ce.Record)
	default:
		s.logger.Debug("unhandled change type", zap.String("type", string(ce.Type)))
	}
}

func (s *Stream) handleBroadcast(be platform.BroadcastEvent) {
	if be.Event != typingEvent {
		return
	}
	var sig TypingSignal
	if err := json.Unmarshal(be.Payload, &sig); err != nil {
		s.logger.Warn("bad typing payload", zap.Error(err))
		return
	}
	s.bus.Emit(bus.KindFeedTyping, sig)
}

// markSeen records an insert id; reports true when it was a duplicate.
// The window is bounded FIFO so a long session cannot grow it.
func (s *Stream) markSeen(id platform.MessageID) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[id]; dup {
		return true
	}
	s.seen[id] = struct{}{}
	s.seenFIFO = append(s.seenFIFO, id)
	if len(s.seenFIFO) > dedupeWindow {
		oldest := s.seenFIFO[0]
		s.seenFIFO = s.seenFIFO[1:]
		delete(s.seen, oldest)
	}
	return false
}

// TypingSender broadcasts typing flags on the recipient's topic. It
// satisfies the composer's sender interface.
type TypingSender struct {
	rt     *platform.Realtime
	selfID func() string
}

// NewTypingSender wires typing broadcasts to the realtime connection.
// selfID is resolved per send so the sender survives re-login.
func NewTypingSender(rt *platform.Realtime, selfID func() string) *TypingSender {
	return &TypingSender{rt: rt, selfID: selfID}
}

// SendTyping publishes the flag on the recipient's typing topic.
func (t *TypingSender) SendTyping(recipientID string, typing bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sig := TypingSignal{From: t.selfID(), Typing: typing}
	return t.rt.SendBroadcast(ctx, "typing:"+recipientID, typingEvent, sig)
}
