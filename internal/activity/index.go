// Package activity keeps the per-contact last-activity index that drives
// the recency ordering and preview column of the conversation list.
package activity

import (
	"sort"
	"sync"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/content"
	"github.com/SandroBreaker/Chat.y/internal/platform"
)

// Entry is the newest message exchanged with one contact.
type Entry struct {
	Message platform.Message
	Seen    time.Time
}

// Index maps contact id to the newest message touching that contact.
type Index struct {
	bus *bus.Bus

	mu      sync.RWMutex
	entries map[string]platform.Message
}

// NewIndex creates an empty activity index.
func NewIndex(b *bus.Bus) *Index {
	return &Index{bus: b, entries: make(map[string]platform.Message)}
}

// Record observes a message and keeps it if it is newer than the
// current entry for its counterpart. Older or equal-time duplicates
// leave the index untouched.
func (x *Index) Record(msg platform.Message, selfID string) {
	counterpart := msg.Counterpart(selfID)
	if counterpart == "" || counterpart == selfID {
		return
	}

	x.mu.Lock()
	cur, ok := x.entries[counterpart]
	if ok && !cur.Before(msg) {
		x.mu.Unlock()
		return
	}
	x.entries[counterpart] = msg
	x.mu.Unlock()

	if x.bus != nil {
		x.bus.Emit(bus.KindIndexChanged, counterpart)
	}
}

// Warm seeds the index from a recent-history fetch in one pass.
func (x *Index) Warm(msgs []platform.Message, selfID string) {
	for _, m := range msgs {
		x.Record(m, selfID)
	}
}

// Get returns the newest message touching the given contact.
func (x *Index) Get(contactID string) (platform.Message, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	m, ok := x.entries[contactID]
	return m, ok
}

// Snapshot returns a copy of the full index.
func (x *Index) Snapshot() map[string]platform.Message {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[string]platform.Message, len(x.entries))
	for k, v := range x.entries {
		out[k] = v
	}
	return out
}

// Sort orders contacts newest activity first. Contacts with no recorded
// activity keep their relative ingestion order at the end of the list.
func (x *Index) Sort(contacts []platform.Profile) []platform.Profile {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := append([]platform.Profile(nil), contacts...)
	sort.SliceStable(out, func(i, j int) bool {
		mi, iok := x.entries[out[i].ID]
		mj, jok := x.entries[out[j].ID]
		switch {
		case iok && jok:
			return mj.Before(mi)
		case iok:
			return true
		default:
			return false
		}
	})
	return out
}

// Reset clears the index on sign-out.
func (x *Index) Reset() {
	x.mu.Lock()
	x.entries = make(map[string]platform.Message)
	x.mu.Unlock()
}

// Preview renders a one-line summary of a message for the conversation
// list. Media and alert payloads get a label, never the raw tag or URL.
func Preview(raw string) string {
	c := content.Parse(raw)
	switch c.Kind {
	case content.KindImage:
		return "📷 Photo"
	case content.KindAudio:
		return "🎤 Voice message"
	case content.KindNudge:
		return "👋 Nudge!"
	default:
		return c.Text
	}
}

// TimeLabel renders the activity timestamp: clock time for today,
// otherwise a short date.
func TimeLabel(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	ty, tm, td := t.Local().Date()
	ny, nm, nd := now.Local().Date()
	if ty == ny && tm == nm && td == nd {
		return t.Local().Format("15:04")
	}
	return t.Local().Format("Jan 2")
}
