package ui

import (
	"fmt"
	"sort"
	"strings"

	"dealboard/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// detailView renders one deal full-screen: header, field table, and the
// description through the markdown renderer.
func (m *App) detailView() string {
	deal, ok := m.board().DealByID(m.detailDealID)
	if !ok {
		return styleStatsDim.Render("Deal no longer exists. Press Esc.")
	}

	field := func(label, value string) string {
		if value == "" {
			value = styleStatsDim.Render("—")
		} else {
			value = styleVal.Render(value)
		}
		return styleField.Render(label) + value
	}

	rows := []string{
		styleDetailHeader.Render(deal.Title),
		"",
		field("ID", deal.ID),
		field("Stage", deal.Stage),
		field("Value", formatMoney(deal.Value)),
		styleField.Render("Priority") + priorityBadge(deal.Priority),
		field("Contact", deal.ContactName),
		field("Owner", deal.OwnerName),
		field("Close date", deal.ExpectedCloseDate),
	}
	if len(deal.Tags) > 0 {
		rows = append(rows, field("Tags", strings.Join(deal.Tags, ", ")))
	}
	if len(deal.CustomFields) > 0 {
		names := make([]string, 0, len(deal.CustomFields))
		for name := range deal.CustomFields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, field(name, deal.CustomFields[name]))
		}
	}
	if domain.IsLostStage(deal.Stage) {
		rows = append(rows, field("Lost reason", deal.LostReason))
	}
	rows = append(rows, field("Updated", deal.UpdatedAt))

	if deal.Description != "" {
		width := m.width - 8
		if width < 20 {
			width = 20
		}
		render := buildMarkdownRenderer(m.outputFormat, width)
		rows = append(rows, "", render(deal.Description))
	}

	rows = append(rows, "",
		styleFooterMuted.Render("e edit title · c copy ID · Esc back"))

	body := strings.Join(rows, "\n")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		styleOverlay.Render(body))
}

// toastView renders whichever toast is active, error first.
func (m *App) toastView() string {
	if m.showErrorToast && m.lastError != "" {
		remaining := int(errorToastDuration.Seconds()) - int(sinceSeconds(m.errorToastStart))
		if remaining < 0 {
			remaining = 0
		}
		content := fmt.Sprintf("⚠ %s\n%s", m.lastError,
			styleStatsDim.Render(fmt.Sprintf("[%ds]", remaining)))
		return styleErrorToast.Render(content)
	}
	if m.showCopyToast && m.copiedDealID != "" {
		remaining := int(copyToastDuration.Seconds()) - int(sinceSeconds(m.copyToastStart))
		if remaining < 0 {
			remaining = 0
		}
		content := fmt.Sprintf("Copied '%s' to clipboard. %s", m.copiedDealID,
			styleStatsDim.Render(fmt.Sprintf("[%ds]", remaining)))
		return styleSuccessToast.Render(content)
	}
	return ""
}
