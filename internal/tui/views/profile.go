package views

import (
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/tui/ui"
	"github.com/rivo/tview"
)

// ProfileView edits the signed-in user's profile.
type ProfileView struct {
	*tview.Form
	theme     *ui.Theme
	onSave    func(username, avatarURL string)
	onSignOut func()
}

// NewProfileView creates the profile form.
func NewProfileView(theme *ui.Theme) *ProfileView {
	pv := &ProfileView{Form: tview.NewForm(), theme: theme}
	pv.SetBorder(true).SetTitle(" Profile ")
	pv.SetBorderColor(theme.BorderColor)
	pv.SetTitleColor(theme.TitleColor)
	return pv
}

// SetOnSave sets the save callback.
func (pv *ProfileView) SetOnSave(fn func(username, avatarURL string)) {
	pv.onSave = fn
}

// SetOnSignOut sets the sign-out callback.
func (pv *ProfileView) SetOnSignOut(fn func()) {
	pv.onSignOut = fn
}

// Load populates the form from the current profile.
func (pv *ProfileView) Load(p platform.Profile) {
	pv.Clear(true)
	pv.AddInputField("Username", p.Username, 40, nil, nil)
	pv.AddInputField("Avatar URL", p.AvatarURL, 60, nil, nil)
	pv.AddButton("Save", func() {
		if pv.onSave != nil {
			pv.onSave(pv.fieldText(0), pv.fieldText(1))
		}
	})
	pv.AddButton("Sign out", func() {
		if pv.onSignOut != nil {
			pv.onSignOut()
		}
	})
}

func (pv *ProfileView) fieldText(i int) string {
	field, ok := pv.GetFormItem(i).(*tview.InputField)
	if !ok {
		return ""
	}
	return field.GetText()
}
