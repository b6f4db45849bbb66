// Package notify maps inbound messages to sounds, desktop-style
// notifications, and the nudge emphasis effect.
package notify

import (
	"sync"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/content"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"go.uber.org/zap"
)

// SoundPlayer plays the two notification sounds. Playback failures are
// logged and swallowed; a silent client still works.
type SoundPlayer interface {
	PlayMessage() error
	PlayAlert() error
}

// Notifier raises a user-visible notification outside the thread view.
type Notifier interface {
	Notify(title, body string)
}

// Options tunes dispatch behavior.
type Options struct {
	// Mute suppresses sounds but not notifications.
	Mute bool
	// AlwaysNotify raises notifications even for the visible thread.
	AlwaysNotify bool
	// EmphasisWindow is how long the nudge effect stays applied.
	EmphasisWindow time.Duration
}

// Dispatcher watches the feed for inbound messages and reacts per
// content kind. Visibility decides whether a notification is raised:
// a message for the thread on screen only plays its sound.
type Dispatcher struct {
	bus      *bus.Bus
	sound    SoundPlayer
	notifier Notifier
	logger   *zap.Logger
	opts     Options

	// visible reports whether the thread with the given sender is on
	// screen right now.
	visible func(senderID string) bool
	// displayName resolves a sender id to a readable name.
	displayName func(senderID string) string
	selfID      func() string

	mu       sync.Mutex
	emphasis *time.Timer
	applyFx  func(active bool)
	stop     func()
}

// NewDispatcher creates an unstarted dispatcher.
func NewDispatcher(b *bus.Bus, sound SoundPlayer, notifier Notifier, logger *zap.Logger, opts Options) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.EmphasisWindow <= 0 {
		opts.EmphasisWindow = 1500 * time.Millisecond
	}
	return &Dispatcher{
		bus:         b,
		sound:       sound,
		notifier:    notifier,
		logger:      logger,
		opts:        opts,
		visible:     func(string) bool { return false },
		displayName: func(id string) string { return id },
		selfID:      func() string { return "" },
	}
}

// BindVisibility installs the on-screen predicate.
func (d *Dispatcher) BindVisibility(fn func(senderID string) bool) {
	if fn != nil {
		d.visible = fn
	}
}

// BindNames installs the sender display-name resolver.
func (d *Dispatcher) BindNames(fn func(senderID string) string) {
	if fn != nil {
		d.displayName = fn
	}
}

// BindSelf installs the signed-in identity resolver.
func (d *Dispatcher) BindSelf(fn func() string) {
	if fn != nil {
		d.selfID = fn
	}
}

// BindEmphasis installs the nudge effect. apply(true) turns the effect
// on, apply(false) turns it off after the window.
func (d *Dispatcher) BindEmphasis(apply func(active bool)) {
	d.mu.Lock()
	d.applyFx = apply
	d.mu.Unlock()
}

// Start consumes feed inserts until Stop.
func (d *Dispatcher) Start() {
	events, unsub := d.bus.Subscribe(bus.KindFeedInsert, 64)
	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case evt := <-events:
				if msg, ok := evt.Payload.(platform.Message); ok {
					d.handle(msg)
				}
			case <-quit:
				return
			}
		}
	}()
	d.mu.Lock()
	d.stop = func() {
		unsub()
		close(quit)
		<-done
	}
	d.mu.Unlock()
}

// Stop halts dispatch and cancels a pending emphasis release.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	stop := d.stop
	d.stop = nil
	if d.emphasis != nil {
		d.emphasis.Stop()
		d.emphasis = nil
	}
	d.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (d *Dispatcher) handle(msg platform.Message) {
	if msg.SenderID == d.selfID() {
		return
	}
	c := content.Parse(msg.Content)

	if c.IsAlert() {
		d.playAlert()
		d.Nudge()
	} else {
		d.playMessage()
	}

	if d.visible(msg.SenderID) && !d.opts.AlwaysNotify {
		return
	}
	if d.notifier != nil {
		d.notifier.Notify(d.displayName(msg.SenderID), Summary(c))
	}
	d.bus.Emit(kindFor(c), msg)
}

// Nudge applies the emphasis effect for one window. A nudge arriving
// while the effect is active restarts the window instead of stacking a
// second release.
func (d *Dispatcher) Nudge() {
	d.mu.Lock()
	defer d.mu.Unlock()
	apply := d.applyFx
	if apply == nil {
		return
	}
	fresh := d.emphasis == nil
	if d.emphasis != nil {
		d.emphasis.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.opts.EmphasisWindow, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.emphasis != t {
			// A later nudge restarted the window; that timer owns the revert.
			return
		}
		d.emphasis = nil
		apply(false)
	})
	d.emphasis = t
	if fresh {
		apply(true)
	}
}

func (d *Dispatcher) playAlert() {
	if d.opts.Mute || d.sound == nil {
		return
	}
	if err := d.sound.PlayAlert(); err != nil {
		d.logger.Debug("alert sound failed", zap.Error(err))
	}
}

func (d *Dispatcher) playMessage() {
	if d.opts.Mute || d.sound == nil {
		return
	}
	if err := d.sound.PlayMessage(); err != nil {
		d.logger.Debug("message sound failed", zap.Error(err))
	}
}

func kindFor(c content.Content) string {
	if c.IsAlert() {
		return bus.KindNotifyAlert
	}
	return bus.KindNotifyMessage
}

// Summary renders the notification body for a content variant. Raw
// tags and media URLs never reach the user.
func Summary(c content.Content) string {
	switch c.Kind {
	case content.KindImage:
		return "sent you a photo"
	case content.KindAudio:
		return "sent you a voice message"
	case content.KindNudge:
		return "sent you a nudge!"
	default:
		return c.Text
	}
}
