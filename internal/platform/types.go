package platform

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Profile maps a row of the profiles table. One record per user; users
// own their record, everyone may read all records.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// MessageID is an opaque ordered identifier assigned by the backing
// store. The platform serves bigint ids as JSON numbers and uuid ids as
// strings; both decode into the same type.
type MessageID string

// UnmarshalJSON accepts either a JSON string or a bare number.
func (id *MessageID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	*id = MessageID(b)
	return nil
}

// Compare orders ids numerically when both are numeric, lexicographically
// otherwise. Used as the tie-break for same-timestamp messages.
func (id MessageID) Compare(other MessageID) int {
	a, errA := strconv.ParseInt(string(id), 10, 64)
	b, errB := strconv.ParseInt(string(other), 10, 64)
	if errA == nil && errB == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(string(id), string(other))
}

// Message maps a row of the messages table. Immutable after insert
// except for the reactions map.
type Message struct {
	ID          MessageID         `json:"id"`
	Content     string            `json:"content"`
	SenderID    string            `json:"sender_id"`
	RecipientID string            `json:"recipient_id"`
	CreatedAt   time.Time         `json:"created_at"`
	IsRead      bool              `json:"is_read"`
	Reactions   map[string]string `json:"reactions,omitempty"`
}

// Counterpart returns the other party of the message relative to selfID.
func (m Message) Counterpart(selfID string) string {
	if m.SenderID == selfID {
		return m.RecipientID
	}
	return m.SenderID
}

// Before reports whether m sorts before other: creation time ascending,
// ties broken by id.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID.Compare(other.ID) < 0
}

// NewMessage is the insert payload for a send operation. The id and
// created_at columns are assigned by the backing store.
type NewMessage struct {
	Content     string `json:"content"`
	SenderID    string `json:"sender_id"`
	RecipientID string `json:"recipient_id"`
	IsRead      bool   `json:"is_read"`
}
