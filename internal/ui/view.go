package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m *App) View() string {
	if !m.ready {
		return "Loading board..."
	}

	switch m.mode {
	case modeCreate:
		return m.create.view(m.width)
	case modeStages:
		return m.stages.view(m.width)
	case modeDetail:
		return m.detailView()
	case modeHelp:
		return m.helpView()
	}

	header := m.headerView()
	board := m.boardView()
	footer := m.footerView()
	view := lipgloss.JoinVertical(lipgloss.Left, header, board, footer)

	if m.mode == modeConfirmDelete {
		return m.confirmDeleteView()
	}
	if m.mode == modeLostReason {
		return m.lostReasonView()
	}

	if toast := m.toastView(); toast != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, toast)
	}
	return view
}

func (m *App) headerView() string {
	summary := m.board().Summary()
	title := "Dealboard"
	if m.version != "" {
		title += " " + m.version
	}
	stats := fmt.Sprintf("%d deals · %s", summary.TotalDeals, formatMoney(summary.TotalValue))
	if m.coordinator.InFlight() > 0 {
		stats += " · syncing..."
	}
	return styleAppHeader.Render(title) + " " + styleStatsDim.Render(stats)
}

func (m *App) footerView() string {
	pills := []struct{ key, desc string }{
		{"Space", "grab"},
		{"⏎", "detail"},
		{"n", "new"},
		{"e", "edit"},
		{"d", "delete"},
		{"S", "stages"},
		{"?", "help"},
		{"q", "quit"},
	}
	if m.dragging.Dragging() {
		pills = []struct{ key, desc string }{
			{"←→↑↓", "aim"},
			{"Space/⏎", "drop"},
			{"Esc", "cancel"},
		}
	}
	parts := make([]string, 0, len(pills))
	for _, p := range pills {
		parts = append(parts, styleKeyPill.Render(" "+p.key+" ")+styleKeyDesc.Render(" "+p.desc))
	}
	return strings.Join(parts, "  ")
}

func (m *App) confirmDeleteView() string {
	deal, _ := m.board().DealByID(m.deleteTargetID)
	body := strings.Join([]string{
		styleOverlayTitle.Render("Delete deal?"),
		"",
		styleVal.Render(deal.Title),
		styleStatsDim.Render(deal.ID),
		"",
		styleFooterMuted.Render("y delete · n cancel"),
	}, "\n")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styleDeleteOverlay.Render(body))
}

func (m *App) lostReasonView() string {
	deal, _ := m.board().DealByID(m.lostReasonDealID)
	body := strings.Join([]string{
		styleOverlayTitle.Render("Deal lost"),
		"",
		styleVal.Render(deal.Title),
		"",
		styleField.Render("Reason") + m.lostReasonInput.View(),
		"",
		styleFooterMuted.Render("⏎ save · Esc skip"),
	}, "\n")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styleOverlay.Render(body))
}

func (m *App) helpView() string {
	section := func(title string, keys [][2]string) string {
		rows := []string{styleOverlayTitle.Render(title)}
		for _, kv := range keys {
			rows = append(rows, fmt.Sprintf("  %s %s",
				lipgloss.NewStyle().Foreground(cCyan).Bold(true).Width(14).Render(kv[0]),
				styleKeyDesc.Render(kv[1])))
		}
		return strings.Join(rows, "\n")
	}

	body := strings.Join([]string{
		section("Navigation", [][2]string{
			{"↑/↓  j/k", "Move between deals"},
			{"←/→  h/l", "Move between stages"},
			{"Home/End", "Jump to top/bottom"},
		}),
		"",
		section("Deals", [][2]string{
			{"Space", "Grab deal, then drop it"},
			{"⏎ (Enter)", "Open detail"},
			{"n", "New deal"},
			{"e", "Edit title inline"},
			{"d", "Delete deal"},
			{"c", "Copy deal ID"},
		}),
		"",
		section("Board", [][2]string{
			{"S", "Edit pipeline stages"},
			{"r", "Refresh now"},
			{"q", "Quit"},
		}),
		"",
		styleFooterMuted.Render("Press any key to close"),
	}, "\n")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styleOverlay.Render(body))
}

var _ tea.Model = (*App)(nil)
