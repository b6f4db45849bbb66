package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TableHeaderFg    tcell.Color
	TableCursorFg    tcell.Color
	TableCursorBg    tcell.Color
	TitleColor       tcell.Color
	OwnMessageColor  tcell.Color
	PeerMessageColor tcell.Color
	TypingColor      tcell.Color
	FlashInfoColor   tcell.Color
	FlashErrColor    tcell.Color
	NudgeColor       tcell.Color
}

// DefaultTheme returns the dark messenger theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorLightGray,
		BorderColor:      tcell.ColorDodgerBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		TableHeaderFg:    tcell.ColorWhite,
		TableCursorFg:    tcell.ColorBlack,
		TableCursorBg:    tcell.ColorAqua,
		TitleColor:       tcell.ColorDodgerBlue,
		OwnMessageColor:  tcell.ColorLightSkyBlue,
		PeerMessageColor: tcell.ColorWhite,
		TypingColor:      tcell.ColorAqua,
		FlashInfoColor:   tcell.ColorNavajoWhite,
		FlashErrColor:    tcell.ColorOrangeRed,
		NudgeColor:       tcell.ColorOrange,
	}
}
