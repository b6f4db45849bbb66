package views

import (
	"fmt"
	"sync"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the signed-in identity, connection status, and a
// transient flash message.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme

	mu        sync.Mutex
	user      string
	status    string
	uploading bool
	flash     string
	flashErr  bool
	flashExp  time.Time
}

// NewStatusBar creates an empty status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// SetUser updates the identity display.
func (sb *StatusBar) SetUser(name string) {
	sb.mu.Lock()
	sb.user = name
	sb.mu.Unlock()
	sb.render()
}

// SetStatus updates the connection status display.
func (sb *StatusBar) SetStatus(status string) {
	sb.mu.Lock()
	sb.status = status
	sb.mu.Unlock()
	sb.render()
}

// SetUploading toggles the media upload indicator.
func (sb *StatusBar) SetUploading(active bool) {
	sb.mu.Lock()
	sb.uploading = active
	sb.mu.Unlock()
	sb.render()
}

// Flash shows a transient info message.
func (sb *StatusBar) Flash(msg string, d time.Duration) {
	sb.setFlash(msg, false, d)
}

// FlashError shows a transient error message.
func (sb *StatusBar) FlashError(msg string, d time.Duration) {
	sb.setFlash(msg, true, d)
}

func (sb *StatusBar) setFlash(msg string, isErr bool, d time.Duration) {
	sb.mu.Lock()
	sb.flash = msg
	sb.flashErr = isErr
	sb.flashExp = time.Now().Add(d)
	sb.mu.Unlock()
	sb.render()
}

func (sb *StatusBar) render() {
	sb.mu.Lock()
	user := sb.user
	status := sb.status
	uploading := sb.uploading
	flash := sb.flash
	flashErr := sb.flashErr
	if time.Now().After(sb.flashExp) {
		flash = ""
	}
	sb.mu.Unlock()

	sb.Clear()

	upIcon := " "
	if uploading {
		upIcon = "[green]^[-]"
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s %s | %s", user, status, upIcon, time.Now().Format("15:04"))
	if flash != "" {
		color := "yellow"
		if flashErr {
			color = "red"
		}
		line += fmt.Sprintf(" | [%s]%s[-]", color, flash)
	}
	_, _ = fmt.Fprint(sb, line)
}
