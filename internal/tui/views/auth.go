package views

import (
	"github.com/SandroBreaker/Chat.y/internal/tui/ui"
	"github.com/rivo/tview"
)

// AuthView is the sign-in / sign-up form. Sign-in accepts a username or
// an email in the identity field.
type AuthView struct {
	*tview.Form
	theme    *ui.Theme
	signup   bool
	onSignIn func(identity, password string)
	onSignUp func(email, username, password string)
}

// NewAuthView creates the form in sign-in mode.
func NewAuthView(theme *ui.Theme) *AuthView {
	av := &AuthView{Form: tview.NewForm(), theme: theme}
	av.SetBorder(true)
	av.SetBorderColor(theme.BorderColor)
	av.SetTitleColor(theme.TitleColor)
	av.rebuild()
	return av
}

// SetOnSignIn sets the sign-in submit callback.
func (av *AuthView) SetOnSignIn(fn func(identity, password string)) {
	av.onSignIn = fn
}

// SetOnSignUp sets the sign-up submit callback.
func (av *AuthView) SetOnSignUp(fn func(email, username, password string)) {
	av.onSignUp = fn
}

// ShowError surfaces an auth failure under the form title.
func (av *AuthView) ShowError(msg string) {
	av.SetTitle(" " + msg + " ")
	av.SetTitleColor(av.theme.FlashErrColor)
}

func (av *AuthView) rebuild() {
	av.Clear(true)
	if av.signup {
		av.SetTitle(" Create account ")
		av.AddInputField("Email", "", 40, nil, nil)
		av.AddInputField("Username", "", 40, nil, nil)
		av.AddPasswordField("Password", "", 40, '*', nil)
		av.AddButton("Sign up", func() {
			email := av.fieldText(0)
			username := av.fieldText(1)
			password := av.fieldText(2)
			if av.onSignUp != nil && email != "" && password != "" {
				av.onSignUp(email, username, password)
			}
		})
		av.AddButton("Have an account? Sign in", av.toggle)
	} else {
		av.SetTitle(" Sign in ")
		av.AddInputField("Email or username", "", 40, nil, nil)
		av.AddPasswordField("Password", "", 40, '*', nil)
		av.AddButton("Sign in", func() {
			identity := av.fieldText(0)
			password := av.fieldText(1)
			if av.onSignIn != nil && identity != "" && password != "" {
				av.onSignIn(identity, password)
			}
		})
		av.AddButton("New here? Sign up", av.toggle)
	}
	av.SetTitleColor(av.theme.TitleColor)
}

func (av *AuthView) toggle() {
	av.signup = !av.signup
	av.rebuild()
}

func (av *AuthView) fieldText(i int) string {
	field, ok := av.GetFormItem(i).(*tview.InputField)
	if !ok {
		return ""
	}
	return field.GetText()
}
