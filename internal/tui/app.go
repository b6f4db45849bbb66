// Package tui is the terminal front end: the auth form, the
// conversation list, and the open thread with its composer.
package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/activity"
	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/content"
	"github.com/SandroBreaker/Chat.y/internal/convo"
	"github.com/SandroBreaker/Chat.y/internal/directory"
	"github.com/SandroBreaker/Chat.y/internal/media"
	"github.com/SandroBreaker/Chat.y/internal/session"
	"github.com/SandroBreaker/Chat.y/internal/status"
	"github.com/SandroBreaker/Chat.y/internal/tui/ui"
	"github.com/SandroBreaker/Chat.y/internal/tui/views"
	"github.com/SandroBreaker/Chat.y/internal/typing"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const flashDuration = 5 * time.Second

// Deps are the components the shell renders and drives.
type Deps struct {
	Bus         *bus.Bus
	Gate        *session.Gate
	Directory   *directory.Cache
	Activity    *activity.Index
	Convo       *convo.Store
	Broadcaster *typing.Broadcaster
	Tracker     *typing.Tracker
	Uploader    *media.Uploader
	Recorder    *media.RecordingManager
	Logger      *zap.Logger
}

// App is the TUI application shell.
type App struct {
	app    *tview.Application
	screen tcell.Screen
	pages  *tview.Pages
	theme  *ui.Theme
	deps   Deps

	statusBar *views.StatusBar
	contacts  *views.ContactList
	thread    *views.ThreadView
	composer  *views.Composer
	authView  *views.AuthView
	profile   *views.ProfileView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(deps Deps) (*App, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("tui screen: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication().SetScreen(screen),
		screen:    screen,
		pages:     tview.NewPages(),
		theme:     theme,
		deps:      deps,
		statusBar: views.NewStatusBar(theme),
		contacts:  views.NewContactList(theme),
		thread:    views.NewThreadView(theme),
		composer:  views.NewComposer(),
		authView:  views.NewAuthView(theme),
		profile:   views.NewProfileView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupCallbacks()
	a.setupLayout()
	go a.watchBus()

	return a, nil
}

func (a *App) setupCallbacks() {
	a.authView.SetOnSignIn(func(identity, password string) {
		go func() {
			if err := a.deps.Gate.SignIn(a.ctx, identity, password); err != nil {
				a.app.QueueUpdateDraw(func() { a.authView.ShowError(err.Error()) })
			}
		}()
	})
	a.authView.SetOnSignUp(func(email, username, password string) {
		go func() {
			if err := a.deps.Gate.SignUp(a.ctx, email, username, password); err != nil {
				a.app.QueueUpdateDraw(func() { a.authView.ShowError(err.Error()) })
			}
		}()
	})

	a.contacts.SetSelectedFunc(func(row, col int) {
		if id := a.contacts.Selected(); id != "" {
			a.openChat(id)
		}
	})

	a.composer.SetOnKeystroke(func() {
		a.deps.Broadcaster.Keystroke()
	})
	a.composer.SetOnSend(func(text string) {
		go func() {
			if err := a.deps.Convo.Send(a.ctx, text); err != nil {
				a.app.QueueUpdateDraw(func() { a.composer.RestoreUnsent(text) })
				a.flashError("Send failed: " + err.Error())
				return
			}
			a.deps.Broadcaster.MessageSent()
		}()
	})
	a.composer.SetOnCommand(a.runCommand)

	a.profile.SetOnSave(func(username, avatarURL string) {
		go func() {
			if err := a.deps.Directory.SaveProfile(a.ctx, username, avatarURL); err != nil {
				a.flashError("Save failed: " + err.Error())
				return
			}
			a.flash("Profile saved")
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetUser(a.deps.Directory.Self().Username)
				a.showContacts()
			})
		}()
	})
	a.profile.SetOnSignOut(func() {
		go a.deps.Gate.SignOut(a.ctx)
	})
}

func (a *App) setupLayout() {
	chatFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 1, 0, true)

	a.pages.AddPage("auth", center(a.authView, 60, 13), true, true)
	a.pages.AddPage("chats", a.contacts, true, false)
	a.pages.AddPage("chat", chatFlex, true, false)
	a.pages.AddPage("profile", center(a.profile, 70, 11), true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape {
			switch currentPage {
			case "chat":
				a.closeChat()
				return nil
			case "profile":
				a.showContacts()
				return nil
			}
		}

		// Text inputs own their keys.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			return event
		}

		if currentPage == "chats" && event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case 'q':
				a.app.Stop()
				return nil
			case 'p':
				a.showProfile()
				return nil
			}
		}
		return event
	})
}

// center wraps a primitive in a fixed-size centered flex.
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// watchBus routes domain events into view updates.
func (a *App) watchBus() {
	events, unsub := a.deps.Bus.Subscribe("", 128)
	defer unsub()

	for {
		select {
		case evt := <-events:
			a.route(evt)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) route(evt bus.Event) {
	switch evt.Kind {
	case bus.KindSessionSignedIn:
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetUser(a.deps.Directory.Self().Username)
			a.showContacts()
		})
	case bus.KindSessionSignedOut:
		// Views are emptied here, not left to the store resets racing on
		// their own subscriptions, so the auth screen never fronts stale
		// session data.
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetUser("")
			a.contacts.Update(nil)
			a.thread.Update(nil, "", a.deps.Directory.DisplayName)
			a.composer.SetText("")
			a.pages.SwitchToPage("auth")
		})
	case bus.KindSessionStatus:
		if change, ok := evt.Payload.(status.StatusChange); ok {
			a.app.QueueUpdateDraw(func() {
				a.statusBar.SetStatus(string(change.To))
				if change.To == status.Ready {
					a.statusBar.SetUser(a.deps.Directory.Self().Username)
					a.refreshContacts()
				}
			})
		}
	case bus.KindDirectoryChanged, bus.KindIndexChanged, bus.KindTypingChanged:
		a.app.QueueUpdateDraw(func() {
			a.refreshContacts()
			a.refreshTypingTitle()
		})
	case bus.KindConvoChanged:
		a.app.QueueUpdateDraw(func() { a.refreshThread() })
	case bus.KindMediaUploading:
		if active, ok := evt.Payload.(bool); ok {
			a.app.QueueUpdateDraw(func() { a.statusBar.SetUploading(active) })
		}
	}
}

func (a *App) showContacts() {
	a.refreshContacts()
	a.pages.SwitchToPage("chats")
	a.app.SetFocus(a.contacts)
}

func (a *App) showProfile() {
	a.profile.Load(a.deps.Directory.Self())
	a.pages.SwitchToPage("profile")
	a.app.SetFocus(a.profile)
}

func (a *App) refreshContacts() {
	sorted := a.deps.Activity.Sort(a.deps.Directory.Contacts())
	rows := make([]views.ContactRow, 0, len(sorted))
	for _, p := range sorted {
		last, ok := a.deps.Activity.Get(p.ID)
		rows = append(rows, views.ContactRow{
			Profile:  p,
			Last:     last,
			HasLast:  ok,
			IsTyping: a.deps.Tracker.IsTyping(p.ID),
		})
	}
	a.contacts.Update(rows)
}

func (a *App) refreshThread() {
	if a.deps.Convo.State() == convo.LoadFailed {
		a.thread.ShowLoadFailure()
		return
	}
	a.thread.Update(a.deps.Convo.Messages(), a.deps.Gate.UserID(), a.deps.Directory.DisplayName)
}

func (a *App) refreshTypingTitle() {
	counterpart := a.deps.Convo.Counterpart()
	if counterpart == "" {
		return
	}
	name := a.deps.Directory.DisplayName(counterpart)
	a.thread.SetTyping(name, a.deps.Tracker.IsTyping(counterpart))
}

func (a *App) openChat(counterpartID string) {
	a.deps.Broadcaster.SetRecipient(counterpartID)
	a.thread.SetCounterpartName(a.deps.Directory.DisplayName(counterpartID))
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.composer)

	go func() {
		if err := a.deps.Convo.Open(a.ctx, counterpartID); err != nil {
			a.deps.Logger.Warn("open conversation failed", zap.Error(err))
		}
	}()
}

func (a *App) closeChat() {
	a.deps.Broadcaster.SetRecipient("")
	a.deps.Convo.Close()
	a.showContacts()
}

func (a *App) runCommand(cmd views.Command) {
	switch cmd.Name {
	case "photo":
		if len(cmd.Args) != 1 {
			a.flashError("Usage: /photo <path>")
			return
		}
		go a.sendPhoto(cmd.Args[0])
	case "audio":
		go a.toggleRecording()
	case "nudge":
		go func() {
			if err := a.deps.Convo.SendContent(a.ctx, content.Nudge()); err != nil {
				a.flashError("Nudge failed: " + err.Error())
			}
		}()
	case "react":
		if len(cmd.Args) != 2 {
			a.flashError("Usage: /react <#> <emoji>")
			return
		}
		go a.react(cmd.Args[0], cmd.Args[1])
	case "profile":
		a.showProfile()
	default:
		a.flashError("Unknown command: /" + cmd.Name)
	}
}

func (a *App) sendPhoto(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		a.flashError("Read failed: " + err.Error())
		return
	}
	ctype := mime.TypeByExtension(filepath.Ext(path))
	if !strings.HasPrefix(ctype, "image/") {
		a.flashError("Not an image: " + path)
		return
	}
	c, err := a.deps.Uploader.UploadImage(a.ctx, data, ctype)
	if err != nil {
		a.flashError("Upload failed: " + err.Error())
		return
	}
	if err := a.deps.Convo.SendContent(a.ctx, c); err != nil {
		a.flashError("Send failed: " + err.Error())
	}
}

func (a *App) toggleRecording() {
	if a.deps.Recorder.Recording() {
		data, ctype, err := a.deps.Recorder.End()
		if err != nil {
			a.flashError("Recording failed: " + err.Error())
			return
		}
		a.flash("Uploading voice message...")
		c, err := a.deps.Uploader.UploadAudio(a.ctx, data, ctype)
		if err != nil {
			a.flashError("Upload failed: " + err.Error())
			return
		}
		if err := a.deps.Convo.SendContent(a.ctx, c); err != nil {
			a.flashError("Send failed: " + err.Error())
		}
		return
	}
	if err := a.deps.Recorder.Begin(a.ctx); err != nil {
		a.flashError("Recording failed: " + err.Error())
		return
	}
	a.flash("Recording... /audio again to send")
}

func (a *App) react(indexArg, emoji string) {
	n, err := strconv.Atoi(strings.TrimPrefix(indexArg, "#"))
	if err != nil {
		a.flashError("Bad message number: " + indexArg)
		return
	}
	msgs := a.deps.Convo.Messages()
	if n < 1 || n > len(msgs) {
		a.flashError("No such message: " + indexArg)
		return
	}
	if err := a.deps.Convo.React(a.ctx, msgs[n-1].ID, emoji); err != nil {
		a.flashError("Reaction failed: " + err.Error())
	}
}

func (a *App) flash(msg string) {
	a.app.QueueUpdateDraw(func() { a.statusBar.Flash(msg, flashDuration) })
}

func (a *App) flashError(msg string) {
	a.app.QueueUpdateDraw(func() { a.statusBar.FlashError(msg, flashDuration) })
}

// Visible reports whether the thread with the given sender is on screen.
// The notification dispatcher uses it to suppress redundant alerts.
func (a *App) Visible(senderID string) bool {
	page, _ := a.pages.GetFrontPage()
	return page == "chat" && a.deps.Convo.Counterpart() == senderID
}

// PlayMessage sounds the message chime.
func (a *App) PlayMessage() error {
	a.screen.Beep()
	return nil
}

// PlayAlert sounds the nudge alert: two quick beeps.
func (a *App) PlayAlert() error {
	a.screen.Beep()
	time.AfterFunc(150*time.Millisecond, func() { a.screen.Beep() })
	return nil
}

// Notify surfaces an out-of-thread message as a status bar flash.
func (a *App) Notify(title, body string) {
	a.flash(title + ": " + body)
}

// ApplyEmphasis is the nudge screen effect: the thread border lights up
// for the emphasis window.
func (a *App) ApplyEmphasis(active bool) {
	a.app.QueueUpdateDraw(func() {
		if active {
			a.thread.SetBorderColor(a.theme.NudgeColor)
			a.contacts.SetBorderColor(a.theme.NudgeColor)
		} else {
			a.thread.SetBorderColor(a.theme.BorderColor)
			a.contacts.SetBorderColor(a.theme.BorderColor)
		}
	})
}

// Run starts the TUI event loop and blocks until quit.
func (a *App) Run() error {
	return a.app.Run()
}

// Stop shuts the TUI down.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
