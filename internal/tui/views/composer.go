package views

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Command is a parsed slash command from the composer.
type Command struct {
	Name string // "photo", "audio", "nudge", "react", ...
	Args []string
}

// Composer is the input line of the open conversation. Plain text sends
// a message; lines starting with '/' run a command.
type Composer struct {
	*tview.InputField
	onSend      func(text string)
	onCommand   func(cmd Command)
	onKeystroke func()
}

// NewComposer creates an empty composer.
func NewComposer() *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)

	c := &Composer{InputField: input}

	input.SetChangedFunc(func(text string) {
		// Slash commands are not conversation activity.
		if c.onKeystroke != nil && text != "" && !strings.HasPrefix(text, "/") {
			c.onKeystroke()
		}
	})

	input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(c.GetText())
		if text == "" {
			return
		}
		c.SetText("")
		if cmd, ok := parseCommand(text); ok {
			if c.onCommand != nil {
				c.onCommand(cmd)
			}
			return
		}
		if c.onSend != nil {
			c.onSend(text)
		}
	})

	return c
}

// RestoreUnsent puts failed-send text back into the field so it is
// never lost. Text the user typed in the meantime wins.
func (c *Composer) RestoreUnsent(text string) {
	if c.GetText() == "" {
		c.SetText(text)
	}
}

// SetOnSend sets the plain-text submit callback.
func (c *Composer) SetOnSend(fn func(text string)) {
	c.onSend = fn
}

// SetOnCommand sets the slash-command callback.
func (c *Composer) SetOnCommand(fn func(cmd Command)) {
	c.onCommand = fn
}

// SetOnKeystroke sets the callback fired on composing activity.
func (c *Composer) SetOnKeystroke(fn func()) {
	c.onKeystroke = fn
}

func parseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}
