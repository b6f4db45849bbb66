package views

import (
	"testing"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		name string
		args int
		ok   bool
	}{
		{"/nudge", "nudge", 0, true},
		{"/photo /tmp/cat.png", "photo", 1, true},
		{"/react #3 ❤️", "react", 2, true},
		{"/REACT #3 ❤️", "react", 2, true},
		{"hello /world", "", 0, false},
		{"/", "", 0, false},
	}
	for _, c := range cases {
		cmd, ok := parseCommand(c.in)
		if ok != c.ok {
			t.Errorf("parseCommand(%q) ok = %v, want %v", c.in, ok, c.ok)
			continue
		}
		if ok && (cmd.Name != c.name || len(cmd.Args) != c.args) {
			t.Errorf("parseCommand(%q) = %+v", c.in, cmd)
		}
	}
}

func TestComposerPreservesUnsentText(t *testing.T) {
	c := NewComposer()
	var sent []string
	c.SetOnSend(func(text string) { sent = append(sent, text) })

	pressEnter := func() {
		c.InputHandler()(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), func(tview.Primitive) {})
	}

	c.SetText("hello bea")
	pressEnter()
	if len(sent) != 1 || sent[0] != "hello bea" {
		t.Fatalf("sent = %v", sent)
	}
	if c.GetText() != "" {
		t.Fatalf("field not cleared on submit: %q", c.GetText())
	}

	// A failed send puts the text back into the idle field.
	c.RestoreUnsent("hello bea")
	if c.GetText() != "hello bea" {
		t.Errorf("unsent text lost: %q", c.GetText())
	}

	// A draft the user already started is never clobbered.
	c.SetText("new draft")
	c.RestoreUnsent("hello bea")
	if c.GetText() != "new draft" {
		t.Errorf("restore clobbered the draft: %q", c.GetText())
	}
}

func TestContactListClearsOnEmptyUpdate(t *testing.T) {
	cl := NewContactList(ui.DefaultTheme())
	cl.selectedFn = func() (int, int) { return 1, 0 }

	cl.Update([]ContactRow{{Profile: platform.Profile{ID: "u1", Username: "bea"}}})
	if cl.Selected() != "u1" {
		t.Fatalf("selected = %q", cl.Selected())
	}

	cl.Update(nil)
	if cl.Selected() != "" {
		t.Errorf("stale row still selectable: %q", cl.Selected())
	}
	if cl.GetRowCount() != 1 { // header only
		t.Errorf("rows = %d, want header only", cl.GetRowCount())
	}
}

func TestSanitizeForTerminal(t *testing.T) {
	// Thumbs up with skin tone modifier loses the modifier only.
	in := "ok \U0001F44D\U0001F3FB"
	want := "ok \U0001F44D"
	if got := sanitizeForTerminal(in); got != want {
		t.Errorf("sanitize = %q, want %q", got, want)
	}
	if got := sanitizeForTerminal("plain text"); got != "plain text" {
		t.Errorf("plain text altered: %q", got)
	}
}

func TestRenderReactions(t *testing.T) {
	if got := renderReactions(nil); got != "" {
		t.Errorf("empty map rendered %q", got)
	}
	got := renderReactions(map[string]string{"a": "👍", "b": "❤️"})
	// Stable regardless of map order.
	if got != renderReactions(map[string]string{"b": "❤️", "a": "👍"}) {
		t.Error("rendering depends on map iteration order")
	}
}

func TestDayLabel(t *testing.T) {
	now := time.Date(2026, 8, 31, 18, 0, 0, 0, time.Local)
	if got := DayLabel(now.Add(-time.Hour), now); got != "Today" {
		t.Errorf("same-day label = %q", got)
	}
	older := time.Date(2026, 8, 28, 9, 0, 0, 0, time.Local)
	if got := DayLabel(older, now); got != "Friday, Aug 28" {
		t.Errorf("older label = %q", got)
	}
}
