package ui

import (
	"fmt"
	"strings"

	"dealboard/internal/crm"
	"dealboard/internal/mutate"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

const (
	minColumnWidth = 18
	maxColumnWidth = 34
)

// boardView renders every stage as a bordered column of deal cards.
func (m *App) boardView() string {
	board := m.board()
	stages := board.Stages()
	if len(stages) == 0 {
		return styleStatsDim.Render("No stages configured.")
	}

	colWidth := m.columnWidth(len(stages))
	summary := board.Summary()

	columns := make([]string, 0, len(stages))
	for i, stage := range stages {
		columns = append(columns, m.columnView(stage, board.StageDeals(stage), summary.ByStage[stage], i, colWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func (m *App) columnWidth(columns int) int {
	if columns == 0 {
		return minColumnWidth
	}
	width := m.width/columns - 4
	if width < minColumnWidth {
		width = minColumnWidth
	}
	if width > maxColumnWidth {
		width = maxColumnWidth
	}
	return width
}

func (m *App) columnView(stage string, deals []crm.Deal, stats crm.StageSummary, col, width int) string {
	header := styleColumnHeader.Render(truncate.StringWithTail(stage, uint(width), "…"))
	counts := styleColumnStats.Render(fmt.Sprintf("%d · %s", stats.Count, formatMoney(stats.Value)))

	rows := []string{header, counts, ""}
	for row, deal := range deals {
		selected := col == m.col && row == m.row
		rows = append(rows, m.cardView(deal, selected, width))
	}
	if len(deals) == 0 {
		rows = append(rows, styleStatsDim.Render("(empty)"))
	}

	body := strings.Join(rows, "\n")
	style := styleColumn
	if m.dragging.Dragging() && col == m.col {
		style = styleColumnDropTarget
	}
	return style.Width(width).Render(body)
}

func (m *App) cardView(deal crm.Deal, selected bool, width int) string {
	title := deal.Title
	if m.editing && deal.ID == m.editDealID {
		title = m.editInput.View()
	} else {
		title = truncate.StringWithTail(title, uint(width-2), "…")
	}

	meta := styleCardValue.Render(formatMoney(deal.Value)) + " " + priorityBadge(deal.Priority)
	lines := []string{title, meta}
	if deal.ContactName != "" {
		lines = append(lines, styleCardContact.Render(truncate.StringWithTail(deal.ContactName, uint(width-2), "…")))
	}

	style := styleCard
	switch {
	case m.dragging.Dragging() && m.dragging.DealID() == deal.ID:
		style = styleCardDragging
	case selected:
		style = styleCardSelected
	case mutate.IsPlaceholderID(deal.ID):
		// Placeholder for an unsettled create.
		style = styleCardPending
	}
	return style.Render(strings.Join(lines, "\n")) + "\n"
}

func formatMoney(value float64) string {
	if value == float64(int64(value)) {
		return fmt.Sprintf("$%d", int64(value))
	}
	return fmt.Sprintf("$%.2f", value)
}
