package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/content"
	"github.com/SandroBreaker/Chat.y/internal/platform"
)

type fakeSound struct {
	mu       sync.Mutex
	messages int
	alerts   int
}

func (f *fakeSound) PlayMessage() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages++
	return nil
}

func (f *fakeSound) PlayAlert() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts++
	return nil
}

func (f *fakeSound) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages, f.alerts
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (f *fakeNotifier) Notify(title, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, body)
}

func (f *fakeNotifier) last() (string, string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.titles) == 0 {
		return "", "", 0
	}
	return f.titles[len(f.titles)-1], f.bodies[len(f.bodies)-1], len(f.titles)
}

func inbound(contentStr string) platform.Message {
	return platform.Message{ID: "1", SenderID: "bea", RecipientID: "me", Content: contentStr}
}

func newDispatcher(t *testing.T, sound SoundPlayer, notifier Notifier, opts Options) (*Dispatcher, *bus.Bus) {
	t.Helper()
	b := bus.New()
	d := NewDispatcher(b, sound, notifier, nil, opts)
	d.BindSelf(func() string { return "me" })
	d.BindNames(func(id string) string { return "Bea" })
	d.Start()
	t.Cleanup(d.Stop)
	return d, b
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

func TestTextMessageNotifiesWithBody(t *testing.T) {
	sound := &fakeSound{}
	notifier := &fakeNotifier{}
	_, b := newDispatcher(t, sound, notifier, Options{})

	b.Emit(bus.KindFeedInsert, inbound("hello there"))

	waitFor(t, func() bool { _, _, n := notifier.last(); return n == 1 })
	title, body, _ := notifier.last()
	if title != "Bea" || body != "hello there" {
		t.Errorf("notification = %q / %q", title, body)
	}
	waitFor(t, func() bool { m, _ := sound.counts(); return m == 1 })
}

func TestMediaSummariesHideRawPayload(t *testing.T) {
	notifier := &fakeNotifier{}
	_, b := newDispatcher(t, &fakeSound{}, notifier, Options{Mute: true})

	b.Emit(bus.KindFeedInsert, inbound("[IMAGE]https://x/y.png"))
	waitFor(t, func() bool { _, _, n := notifier.last(); return n == 1 })
	if _, body, _ := notifier.last(); body != "sent you a photo" {
		t.Errorf("body = %q", body)
	}

	b.Emit(bus.KindFeedInsert, inbound("[AUDIO]https://x/y.webm"))
	waitFor(t, func() bool { _, _, n := notifier.last(); return n == 2 })
	if _, body, _ := notifier.last(); body != "sent you a voice message" {
		t.Errorf("body = %q", body)
	}
}

func TestOwnEchoIgnored(t *testing.T) {
	sound := &fakeSound{}
	notifier := &fakeNotifier{}
	_, b := newDispatcher(t, sound, notifier, Options{})

	own := platform.Message{ID: "1", SenderID: "me", RecipientID: "bea", Content: "hi"}
	b.Emit(bus.KindFeedInsert, own)

	time.Sleep(50 * time.Millisecond)
	if m, a := sound.counts(); m != 0 || a != 0 {
		t.Errorf("sounds = %d/%d", m, a)
	}
	if _, _, n := notifier.last(); n != 0 {
		t.Error("own echo raised a notification")
	}
}

func TestVisibleThreadSkipsNotification(t *testing.T) {
	sound := &fakeSound{}
	notifier := &fakeNotifier{}
	d, b := newDispatcher(t, sound, notifier, Options{})
	d.BindVisibility(func(senderID string) bool { return senderID == "bea" })

	b.Emit(bus.KindFeedInsert, inbound("hi"))

	waitFor(t, func() bool { m, _ := sound.counts(); return m == 1 })
	if _, _, n := notifier.last(); n != 0 {
		t.Error("visible thread still notified")
	}
}

func TestAlwaysNotifyOverridesVisibility(t *testing.T) {
	notifier := &fakeNotifier{}
	d, b := newDispatcher(t, &fakeSound{}, notifier, Options{AlwaysNotify: true})
	d.BindVisibility(func(string) bool { return true })

	b.Emit(bus.KindFeedInsert, inbound("hi"))
	waitFor(t, func() bool { _, _, n := notifier.last(); return n == 1 })
}

func TestMuteSilencesSoundsOnly(t *testing.T) {
	sound := &fakeSound{}
	notifier := &fakeNotifier{}
	_, b := newDispatcher(t, sound, notifier, Options{Mute: true})

	b.Emit(bus.KindFeedInsert, inbound("hi"))
	waitFor(t, func() bool { _, _, n := notifier.last(); return n == 1 })
	if m, a := sound.counts(); m != 0 || a != 0 {
		t.Errorf("muted client played sounds: %d/%d", m, a)
	}
}

func TestNudgePlaysAlertAndEmphasizesOnce(t *testing.T) {
	sound := &fakeSound{}
	d, b := newDispatcher(t, sound, &fakeNotifier{}, Options{EmphasisWindow: 60 * time.Millisecond})

	var mu sync.Mutex
	var calls []bool
	d.BindEmphasis(func(active bool) {
		mu.Lock()
		calls = append(calls, active)
		mu.Unlock()
	})

	b.Emit(bus.KindFeedInsert, inbound("[NUDGE]"))

	waitFor(t, func() bool { _, a := sound.counts(); return a == 1 })
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if !calls[0] || calls[1] {
		t.Errorf("emphasis calls = %v, want [true false]", calls)
	}
}

func TestBackToBackNudgesExtendNotStack(t *testing.T) {
	d, _ := newDispatcher(t, &fakeSound{}, &fakeNotifier{}, Options{EmphasisWindow: 80 * time.Millisecond})

	var mu sync.Mutex
	var calls []bool
	d.BindEmphasis(func(active bool) {
		mu.Lock()
		calls = append(calls, active)
		mu.Unlock()
	})

	d.Nudge()
	time.Sleep(40 * time.Millisecond)
	d.Nudge() // restarts the window while active

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 2 || !calls[0] || calls[1] {
		t.Errorf("emphasis calls = %v, want exactly [true false]", calls)
	}
}

func TestNudgeAtExpiryBoundaryRevertsOnce(t *testing.T) {
	window := 2 * time.Millisecond
	d, _ := newDispatcher(t, &fakeSound{}, &fakeNotifier{}, Options{EmphasisWindow: window})

	var mu sync.Mutex
	var calls []bool
	d.BindEmphasis(func(active bool) {
		mu.Lock()
		calls = append(calls, active)
		mu.Unlock()
	})

	// Each nudge lands right around the previous window's expiry, racing
	// the revert callback against the restart.
	for i := 0; i < 50; i++ {
		d.Nudge()
		time.Sleep(window)
	}
	time.Sleep(10 * window)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) == 0 || calls[len(calls)-1] {
		t.Fatalf("effect left on: %v", calls)
	}
	for i := 1; i < len(calls); i++ {
		if !calls[i] && !calls[i-1] {
			t.Fatalf("effect reverted twice in a row: %v", calls)
		}
	}
}

func TestNotifyEventKinds(t *testing.T) {
	_, b := newDispatcher(t, &fakeSound{}, &fakeNotifier{}, Options{Mute: true})
	events, unsub := b.Subscribe("notify.", 8)
	defer unsub()

	b.Emit(bus.KindFeedInsert, inbound("hi"))
	select {
	case evt := <-events:
		if evt.Kind != bus.KindNotifyMessage {
			t.Errorf("kind = %q", evt.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notify event")
	}

	b.Emit(bus.KindFeedInsert, inbound(content.Nudge().Encode()))
	select {
	case evt := <-events:
		if evt.Kind != bus.KindNotifyAlert {
			t.Errorf("kind = %q", evt.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no alert event")
	}
}
