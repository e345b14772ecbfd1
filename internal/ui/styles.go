package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

var (
	cPurple     = lipgloss.Color("99")
	cCyan       = lipgloss.Color("39")
	cNeonGreen  = lipgloss.Color("118")
	cRed        = lipgloss.Color("203")
	cOrange     = lipgloss.Color("208")
	cGold       = lipgloss.Color("220")
	cGray       = lipgloss.Color("240")
	cBrightGray = lipgloss.Color("246")
	cLightGray  = lipgloss.Color("250")
	cWhite      = lipgloss.Color("255")
	cHighlight  = lipgloss.Color("57")
	cField      = lipgloss.Color("63")

	styleAppHeader = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cPurple).
			Bold(true).
			Padding(0, 1)

	styleColumn = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(cGray).
			Padding(0, 1)

	styleColumnDropTarget = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(cPurple).
				Padding(0, 1)

	styleColumnHeader = lipgloss.NewStyle().
				Foreground(cGold).
				Bold(true)

	styleColumnStats = lipgloss.NewStyle().
				Foreground(cBrightGray)

	styleCard = lipgloss.NewStyle().
			Foreground(cWhite)

	styleCardSelected = lipgloss.NewStyle().
				Background(cHighlight).
				Foreground(cWhite).
				Bold(true)

	styleCardDragging = lipgloss.NewStyle().
				Background(cGray).
				Foreground(cLightGray).
				Italic(true)

	styleCardPending = lipgloss.NewStyle().
				Foreground(cBrightGray).
				Italic(true)

	styleCardValue = lipgloss.NewStyle().Foreground(cNeonGreen)

	styleCardContact = lipgloss.NewStyle().Foreground(cBrightGray)

	stylePrioHigh = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cRed).
			Padding(0, 1).
			Bold(true)

	stylePrioMedium = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cOrange).
			Padding(0, 1)

	stylePrioLow = lipgloss.NewStyle().
			Foreground(cWhite).
			Background(cGray).
			Padding(0, 1)

	styleField = lipgloss.NewStyle().
			Foreground(cField).
			Bold(true).
			Width(14)

	styleVal = lipgloss.NewStyle().Foreground(cWhite)

	styleDetailHeader = lipgloss.NewStyle().
				Background(cHighlight).
				Foreground(cWhite).
				Bold(true).
				Padding(0, 1)

	styleErrorToast = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cRed).
			Foreground(cWhite).
			Padding(0, 1)

	styleSuccessToast = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(cNeonGreen).
				Foreground(cWhite).
				Padding(0, 1)

	styleStatsDim = lipgloss.NewStyle().Foreground(cBrightGray)

	styleOverlay = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cPurple).
			Padding(1, 2)

	styleDeleteOverlay = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(cRed).
				Padding(1, 2)

	styleOverlayTitle = lipgloss.NewStyle().
				Foreground(cGold).
				Bold(true)

	styleOverlayError = lipgloss.NewStyle().Foreground(cRed)

	styleStageCursor = lipgloss.NewStyle().
				Background(cHighlight).
				Foreground(cWhite).
				Bold(true)

	styleStageTerminal = lipgloss.NewStyle().Foreground(cCyan)

	styleKeyPill = lipgloss.NewStyle().
			Background(cPurple).
			Foreground(cWhite).
			Bold(true)

	styleKeyDesc = lipgloss.NewStyle().
			Foreground(cBrightGray)

	styleFooterMuted = lipgloss.NewStyle().
				Foreground(cBrightGray)
)

func priorityBadge(priority string) string {
	switch priority {
	case "high":
		return stylePrioHigh.Render("high")
	case "low":
		return stylePrioLow.Render("low")
	default:
		return stylePrioMedium.Render("med")
	}
}

func buildMarkdownRenderer(format string, width int) func(string) string {
	fallback := func(input string) string {
		return wordwrap.String(input, width)
	}

	style := strings.ToLower(strings.TrimSpace(format))
	if style == "" || style == "rich" || style == "dark" {
		style = "dark"
	}
	if style == "plain" {
		return fallback
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fallback
	}
	return func(input string) string {
		out, err := renderer.Render(input)
		if err != nil {
			return fallback(input)
		}
		return strings.TrimSpace(out)
	}
}
