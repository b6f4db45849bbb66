package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	realtimeWriteWait = 10 * time.Second
	heartbeatInterval = 30 * time.Second
	subBufSize        = 64
)

// Wire events of the realtime channel protocol.
const (
	evtJoin      = "phx_join"
	evtLeave     = "phx_leave"
	evtReply     = "phx_reply"
	evtHeartbeat = "heartbeat"
	evtChanges   = "postgres_changes"
	evtBroadcast = "broadcast"
)

// Envelope is the frame exchanged on the realtime websocket.
type Envelope struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ref     string          `json:"ref,omitempty"`
}

// ChangeType is the row-level event type delivered on a change feed.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
)

// ChangeEvent is a row-level change delivered for a subscribed filter.
type ChangeEvent struct {
	Type   ChangeType `json:"type"`
	Record Message    `json:"record"`
}

// BroadcastEvent is an ephemeral broadcast delivered on a topic.
type BroadcastEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Realtime is a single websocket connection multiplexing change-feed and
// broadcast subscriptions by topic. Dial once per session; Close on
// sign-out releases every subscription.
type Realtime struct {
	baseURL string
	anonKey string
	logger  *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	subs   map[string][]*rtSub
	nextID int
	ref    atomic.Int64
}

type rtSub struct {
	id        int
	changes   chan ChangeEvent
	broadcast chan BroadcastEvent
}

// NewRealtime creates an undialed realtime connection for the client's
// platform.
func NewRealtime(c *Client, logger *zap.Logger) *Realtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Realtime{
		baseURL: c.baseURL,
		anonKey: c.anonKey,
		logger:  logger,
		subs:    make(map[string][]*rtSub),
	}
}

// websocketURL converts the platform base URL to the realtime endpoint.
func (r *Realtime) websocketURL(token string) string {
	ws := r.baseURL
	ws = strings.Replace(ws, "https://", "wss://", 1)
	ws = strings.Replace(ws, "http://", "ws://", 1)
	return fmt.Sprintf("%s/realtime/v1/websocket?apikey=%s&token=%s&vsn=1.0.0", ws, r.anonKey, token)
}

// Dial opens the websocket and starts the read and heartbeat loops.
func (r *Realtime) Dial(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		return fmt.Errorf("realtime: already connected")
	}

	conn, _, err := websocket.Dial(ctx, r.websocketURL(token), nil)
	if err != nil {
		return fmt.Errorf("realtime dial: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	r.conn = conn
	r.cancel = cancel

	go r.readLoop(loopCtx, conn)
	go r.heartbeatLoop(loopCtx)
	return nil
}

// Connected reports whether the websocket is up.
func (r *Realtime) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// Close tears down the connection and all subscriptions.
func (r *Realtime) Close() {
	r.mu.Lock()
	conn := r.conn
	cancel := r.cancel
	r.conn = nil
	r.cancel = nil
	r.subs = make(map[string][]*rtSub)
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

// ChangesTopic names the change-feed channel for a table filter.
func ChangesTopic(table, filter string) string {
	return "realtime:public:" + table + ":" + filter
}

// BroadcastTopic names an ephemeral broadcast channel.
func BroadcastTopic(name string) string {
	return "realtime:" + name
}

// changesJoinPayload builds the join config for a row-change subscription.
func changesJoinPayload(table, filter string) json.RawMessage {
	payload, _ := json.Marshal(map[string]any{
		"config": map[string]any{
			"postgres_changes": []map[string]string{{
				"event":  "*",
				"schema": "public",
				"table":  table,
				"filter": filter,
			}},
		},
	})
	return payload
}

// broadcastJoinPayload builds the join config for a broadcast subscription.
func broadcastJoinPayload() json.RawMessage {
	payload, _ := json.Marshal(map[string]any{
		"config": map[string]any{
			"broadcast": map[string]bool{"self": false},
		},
	})
	return payload
}

// SubscribeChanges joins the change feed for table rows matching filter
// (e.g. "recipient_id=eq.<uuid>"). The returned function leaves the
// channel when the last subscriber for the topic is gone.
func (r *Realtime) SubscribeChanges(ctx context.Context, table, filter string) (<-chan ChangeEvent, func(), error) {
	topic := ChangesTopic(table, filter)
	sub := &rtSub{changes: make(chan ChangeEvent, subBufSize)}
	if err := r.join(ctx, topic, sub, changesJoinPayload(table, filter)); err != nil {
		return nil, nil, err
	}
	return sub.changes, r.leaveFunc(topic, sub), nil
}

// SubscribeBroadcast joins an ephemeral broadcast topic.
func (r *Realtime) SubscribeBroadcast(ctx context.Context, name string) (<-chan BroadcastEvent, func(), error) {
	topic := BroadcastTopic(name)
	sub := &rtSub{broadcast: make(chan BroadcastEvent, subBufSize)}
	if err := r.join(ctx, topic, sub, broadcastJoinPayload()); err != nil {
		return nil, nil, err
	}
	return sub.broadcast, r.leaveFunc(topic, sub), nil
}

// SendBroadcast publishes an ephemeral event on a topic. Not persisted,
// not acknowledged.
func (r *Realtime) SendBroadcast(ctx context.Context, name, event string, payload any) error {
	body, err := json.Marshal(BroadcastEvent{Event: event, Payload: mustRaw(payload)})
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}
	return r.write(ctx, Envelope{
		Topic:   BroadcastTopic(name),
		Event:   evtBroadcast,
		Payload: body,
		Ref:     r.nextRef(),
	})
}

func mustRaw(payload any) json.RawMessage {
	b, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

func (r *Realtime) join(ctx context.Context, topic string, sub *rtSub, payload json.RawMessage) error {
	r.mu.Lock()
	if r.conn == nil {
		r.mu.Unlock()
		return fmt.Errorf("realtime: not connected")
	}
	r.nextID++
	sub.id = r.nextID
	first := len(r.subs[topic]) == 0
	r.subs[topic] = append(r.subs[topic], sub)
	r.mu.Unlock()

	if !first {
		return nil
	}
	if err := r.write(ctx, Envelope{Topic: topic, Event: evtJoin, Payload: payload, Ref: r.nextRef()}); err != nil {
		r.remove(topic, sub.id)
		return err
	}
	return nil
}

func (r *Realtime) leaveFunc(topic string, sub *rtSub) func() {
	return func() {
		if last := r.remove(topic, sub.id); last {
			ctx, cancel := context.WithTimeout(context.Background(), realtimeWriteWait)
			defer cancel()
			_ = r.write(ctx, Envelope{Topic: topic, Event: evtLeave, Ref: r.nextRef()})
		}
	}
}

// remove drops a subscriber; reports whether the topic has none left.
func (r *Realtime) remove(topic string, id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	subs := r.subs[topic]
	for i, s := range subs {
		if s.id == id {
			r.subs[topic] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(r.subs[topic]) == 0 {
		delete(r.subs, topic)
		return r.conn != nil
	}
	return false
}

func (r *Realtime) nextRef() string {
	return strconv.FormatInt(r.ref.Add(1), 10)
}

func (r *Realtime) write(ctx context.Context, env Envelope) error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("realtime: not connected")
	}
	writeCtx, cancel := context.WithTimeout(ctx, realtimeWriteWait)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, env); err != nil {
		return fmt.Errorf("realtime write: %w", err)
	}
	return nil
}

func (r *Realtime) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var env Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if ctx.Err() == nil {
				if websocket.CloseStatus(err) != -1 {
					r.logger.Warn("realtime connection closed", zap.Error(err))
				} else {
					r.logger.Error("realtime read failed", zap.Error(err))
				}
			}
			return
		}
		r.dispatch(env)
	}
}

func (r *Realtime) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.write(ctx, Envelope{Topic: "phoenix", Event: evtHeartbeat, Ref: r.nextRef()}); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (r *Realtime) dispatch(env Envelope) {
	switch env.Event {
	case evtChanges:
		var ce ChangeEvent
		if err := json.Unmarshal(env.Payload, &ce); err != nil {
			r.logger.Warn("bad change payload", zap.String("topic", env.Topic), zap.Error(err))
			return
		}
		r.deliver(env.Topic, func(s *rtSub) {
			if s.changes == nil {
				return
			}
			select {
			case s.changes <- ce:
			default:
			}
		})
	case evtBroadcast:
		var be BroadcastEvent
		if err := json.Unmarshal(env.Payload, &be); err != nil {
			r.logger.Warn("bad broadcast payload", zap.String("topic", env.Topic), zap.Error(err))
			return
		}
		r.deliver(env.Topic, func(s *rtSub) {
			if s.broadcast == nil {
				return
			}
			select {
			case s.broadcast <- be:
			default:
			}
		})
	case evtReply, evtHeartbeat:
		// Acknowledgements carry nothing the client tracks.
	}
}

func (r *Realtime) deliver(topic string, send func(*rtSub)) {
	r.mu.Lock()
	subs := append([]*rtSub(nil), r.subs[topic]...)
	r.mu.Unlock()
	for _, s := range subs {
		send(s)
	}
}
