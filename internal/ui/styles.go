package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#7D56F4")
	colorMuted   = lipgloss.Color("241")
	colorWarning = lipgloss.Color("#FFB86C")
	colorReady   = lipgloss.Color("#50FA7B")
	colorUser    = lipgloss.Color("#8BE9FD")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(colorAccent).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Width(12)

	focusedLabelStyle = labelStyle.
				Foreground(colorAccent).
				Bold(true)

	userStyle = lipgloss.NewStyle().Foreground(colorUser)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	statusReadyStyle = statusStyle.Foreground(colorReady)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarning).
			Padding(1, 3)

	modalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWarning)
)
