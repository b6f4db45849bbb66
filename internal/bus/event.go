package bus

import "time"

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}

// Event kinds published by the client. Subscribers filter by namespace
// prefix, e.g. "feed." receives every feed event.
const (
	KindSessionSignedIn  = "session.signed_in"
	KindSessionSignedOut = "session.signed_out"
	KindSessionStatus    = "session.status_changed"

	KindFeedInsert = "feed.message_inserted"
	KindFeedUpdate = "feed.message_updated"
	KindFeedTyping = "feed.typing"

	KindConvoChanged     = "convo.changed"
	KindIndexChanged     = "index.changed"
	KindTypingChanged    = "typing.changed"
	KindDirectoryChanged = "directory.changed"

	KindNotifyMessage  = "notify.message"
	KindNotifyAlert    = "notify.alert"
	KindMediaUploading = "media.uploading"
)
