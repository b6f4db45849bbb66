package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/content"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/tui/ui"
	"github.com/rivo/tview"
)

// ThreadView renders the open conversation.
type ThreadView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewThreadView creates an empty thread view.
func NewThreadView(theme *ui.Theme) *ThreadView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")
	tv.SetBorderColor(theme.BorderColor)

	return &ThreadView{TextView: tv, theme: theme}
}

// SetCounterpartName updates the title with the open contact's name.
func (tv *ThreadView) SetCounterpartName(name string) {
	tv.SetTitle(fmt.Sprintf(" %s ", name))
}

// SetTyping annotates the title while the counterpart is typing.
func (tv *ThreadView) SetTyping(name string, typing bool) {
	if typing {
		tv.SetTitle(fmt.Sprintf(" %s [aqua::i](typing...)[-:-:-] ", name))
	} else {
		tv.SetCounterpartName(name)
	}
}

// ShowLoadFailure replaces the thread with an error line. An empty
// thread renders as an empty view, never as an error.
func (tv *ThreadView) ShowLoadFailure() {
	tv.Clear()
	_, _ = fmt.Fprint(tv, "\n [red]Could not load this conversation.[-]\n")
}

// Update re-renders the thread. Messages arrive in creation order; each
// line carries an index label so /react can address it.
func (tv *ThreadView) Update(msgs []platform.Message, selfID string, nameOf func(string) string) {
	tv.Clear()

	now := time.Now()
	var lastDay string
	for i, m := range msgs {
		if day := DayLabel(m.CreatedAt, now); day != lastDay {
			_, _ = fmt.Fprintf(tv, " [::d]—— %s ——[-:-:-]\n\n", day)
			lastDay = day
		}
		sender := nameOf(m.SenderID)
		color := "white"
		if m.SenderID == selfID {
			sender = "You"
			color = "lightskyblue"
		}

		body := renderBody(content.Parse(m.Content))
		ts := m.CreatedAt.Local().Format("15:04")

		line := fmt.Sprintf("[::d]#%d[-:-:-] [%s::b]%s[-:-:-] [::d]%s[-:-:-]\n%s\n", i+1, color, sender, ts, sanitizeForTerminal(body))
		if reactions := renderReactions(m.Reactions); reactions != "" {
			line += "  " + sanitizeForTerminal(reactions) + "\n"
		}
		_, _ = fmt.Fprint(tv, line+"\n")
	}

	tv.ScrollToEnd()
}

func renderBody(c content.Content) string {
	switch c.Kind {
	case content.KindImage:
		return "[teal]📷 Photo[-] [::d]" + c.URL + "[-:-:-]"
	case content.KindAudio:
		return "[teal]🎤 Voice message[-] [::d]" + c.URL + "[-:-:-]"
	case content.KindNudge:
		return "[orange::b]👋 Nudge![-:-:-]"
	default:
		return c.Text
	}
}

// renderReactions flattens the reactions map into a stable line.
func renderReactions(reactions map[string]string) string {
	if len(reactions) == 0 {
		return ""
	}
	emojis := make([]string, 0, len(reactions))
	for _, e := range reactions {
		emojis = append(emojis, e)
	}
	sort.Strings(emojis)
	return strings.Join(emojis, " ")
}

// DayLabel renders a date separator label for a message timestamp.
func DayLabel(t, now time.Time) string {
	ty, tm, td := t.Local().Date()
	ny, nm, nd := now.Local().Date()
	if ty == ny && tm == nm && td == nd {
		return "Today"
	}
	return t.Local().Format("Monday, Jan 2")
}
