package views

import (
	"time"

	"github.com/SandroBreaker/Chat.y/internal/activity"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ContactRow is one rendered line of the conversation list.
type ContactRow struct {
	Profile  platform.Profile
	Last     platform.Message
	HasLast  bool
	IsTyping bool
}

// ContactList is the conversation list table: one row per contact,
// sorted by recency by the caller.
type ContactList struct {
	*tview.Table
	theme      *ui.Theme
	rows       []ContactRow
	selectedFn func() (int, int)
}

// NewContactList creates an empty conversation list.
func NewContactList(theme *ui.Theme) *ContactList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")
	table.SetBorderColor(theme.BorderColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	cl := &ContactList{Table: table, theme: theme}
	cl.selectedFn = table.GetSelection
	return cl
}

// Update re-renders the list from the given rows.
func (cl *ContactList) Update(rows []ContactRow) {
	cl.rows = rows
	cl.Clear()

	header := func(col int, text string) {
		cl.SetCell(0, col, tview.NewTableCell(" "+text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg))
	}
	header(0, "Name")
	header(1, "Last Message")
	header(2, "Time")

	now := time.Now()
	for i, r := range rows {
		row := i + 1
		name := r.Profile.Username
		if name == "" {
			name = r.Profile.ID
		}

		preview := ""
		timeLabel := ""
		if r.HasLast {
			preview = sanitizeForTerminal(activity.Preview(r.Last.Content))
			timeLabel = activity.TimeLabel(r.Last.CreatedAt, now)
		}
		if r.IsTyping {
			preview = "[aqua::i]typing...[-:-:-]"
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+name).SetMaxWidth(24).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+preview).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(row, 2, tview.NewTableCell(" "+timeLabel).SetMaxWidth(12))
	}
}

// Selected returns the contact id of the highlighted row.
func (cl *ContactList) Selected() string {
	row, _ := cl.selectedFn()
	idx := row - 1 // header
	if idx >= 0 && idx < len(cl.rows) {
		return cl.rows[idx].Profile.ID
	}
	return ""
}
