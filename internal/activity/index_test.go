package activity

import (
	"testing"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/platform"
)

func msg(id, sender, recipient string, at time.Time) platform.Message {
	return platform.Message{
		ID:          platform.MessageID(id),
		SenderID:    sender,
		RecipientID: recipient,
		CreatedAt:   at,
	}
}

func TestRecordKeepsNewest(t *testing.T) {
	x := NewIndex(nil)
	t0 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	x.Record(msg("1", "bea", "me", t0), "me")
	x.Record(msg("2", "me", "bea", t0.Add(time.Minute)), "me")
	x.Record(msg("1", "bea", "me", t0), "me") // stale replay

	got, ok := x.Get("bea")
	if !ok || got.ID != "2" {
		t.Errorf("entry = %+v, want message 2", got)
	}
}

func TestRecordIgnoresSelfOnlyMessage(t *testing.T) {
	x := NewIndex(nil)
	x.Record(msg("1", "me", "me", time.Now()), "me")
	if len(x.Snapshot()) != 0 {
		t.Error("note-to-self must not create an entry")
	}
}

func TestSortRecencyThenIngestionOrder(t *testing.T) {
	x := NewIndex(nil)
	t0 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	x.Record(msg("1", "bea", "me", t0), "me")
	x.Record(msg("2", "caro", "me", t0.Add(time.Hour)), "me")

	contacts := []platform.Profile{
		{ID: "dan"}, {ID: "bea"}, {ID: "eli"}, {ID: "caro"},
	}
	got := x.Sort(contacts)

	want := []string{"caro", "bea", "dan", "eli"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if contacts[0].ID != "dan" {
		t.Error("Sort must not mutate its input")
	}
}

func ids(ps []platform.Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestWarmAndReset(t *testing.T) {
	x := NewIndex(nil)
	t0 := time.Now()
	x.Warm([]platform.Message{
		msg("3", "me", "bea", t0),
		msg("2", "caro", "me", t0.Add(-time.Minute)),
	}, "me")

	if len(x.Snapshot()) != 2 {
		t.Fatalf("snapshot = %v", x.Snapshot())
	}
	x.Reset()
	if len(x.Snapshot()) != 0 {
		t.Error("reset left entries behind")
	}
}

func TestPreview(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"hello there", "hello there"},
		{"[IMAGE]https://x/y.png", "📷 Photo"},
		{"[AUDIO]https://x/y.webm", "🎤 Voice message"},
		{"[NUDGE]", "👋 Nudge!"},
	}
	for _, c := range cases {
		if got := Preview(c.raw); got != c.want {
			t.Errorf("Preview(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestTimeLabel(t *testing.T) {
	now := time.Date(2026, 8, 31, 18, 0, 0, 0, time.Local)
	today := time.Date(2026, 8, 31, 9, 5, 0, 0, time.Local)
	if got := TimeLabel(today, now); got != "09:05" {
		t.Errorf("same-day label = %q", got)
	}
	yesterday := time.Date(2026, 8, 30, 9, 5, 0, 0, time.Local)
	if got := TimeLabel(yesterday, now); got != "Aug 30" {
		t.Errorf("older label = %q", got)
	}
	if TimeLabel(time.Time{}, now) != "" {
		t.Error("zero time should render empty")
	}
}
