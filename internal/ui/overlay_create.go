package ui

import (
	"strconv"
	"strings"

	"dealboard/internal/config"
	"dealboard/internal/crm"
	"dealboard/internal/domain"
	appErrors "dealboard/internal/errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	createFieldTitle = iota
	createFieldValue
	createFieldContact
	createFieldDescription
	createFieldStage
	createFieldPriority
	createFieldCount
)

var createPriorities = []domain.Priority{
	domain.PriorityLow,
	domain.PriorityMedium,
	domain.PriorityHigh,
}

// createOverlay is the new-deal form. Selector rows (stage, priority) cycle
// with left/right; text rows are plain inputs.
type createOverlay struct {
	title       textinput.Model
	value       textinput.Model
	contact     textinput.Model
	description textinput.Model

	stages        []string
	stageIndex    int
	priorityIndex int

	focus  int
	errMsg string
}

func newCreateOverlay(stages []string, currentStage string) createOverlay {
	title := textinput.New()
	title.Placeholder = "Deal title"
	title.CharLimit = 120
	title.Focus()

	value := textinput.New()
	value.Placeholder = "0"
	value.CharLimit = 20

	contact := textinput.New()
	contact.Placeholder = "Contact name (optional)"
	contact.CharLimit = 80

	description := textinput.New()
	description.Placeholder = "Description (optional)"
	description.CharLimit = 400

	// Preselect the cursor's stage; a new deal lands where the user is
	// looking. Without a selection, fall back to the first working stage.
	if currentStage == "" || !domain.ContainsStage(stages, currentStage) {
		currentStage = domain.FirstWorkingStage(stages)
	}
	stageIndex := 0
	for i, stage := range stages {
		if stage == currentStage {
			stageIndex = i
			break
		}
	}

	return createOverlay{
		title:         title,
		value:         value,
		contact:       contact,
		description:   description,
		stages:        append([]string(nil), stages...),
		stageIndex:    stageIndex,
		priorityIndex: 1, // medium
	}
}

func (o *createOverlay) focusedInput() *textinput.Model {
	switch o.focus {
	case createFieldTitle:
		return &o.title
	case createFieldValue:
		return &o.value
	case createFieldContact:
		return &o.contact
	case createFieldDescription:
		return &o.description
	}
	return nil
}

func (o *createOverlay) setFocus(next int) tea.Cmd {
	if next < 0 {
		next = createFieldCount - 1
	}
	if next >= createFieldCount {
		next = 0
	}
	if input := o.focusedInput(); input != nil {
		input.Blur()
	}
	o.focus = next
	if input := o.focusedInput(); input != nil {
		return input.Focus()
	}
	return nil
}

// request validates the form and builds the create payload. The position is
// chosen by the configured placement policy against the target stage.
func (o *createOverlay) request(position func(stage string) int) (crm.CreateDealRequest, error) {
	title := strings.TrimSpace(o.title.Value())

	value := 0.0
	if raw := strings.TrimSpace(o.value.Value()); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return crm.CreateDealRequest{}, appErrors.New(appErrors.CodeInvalidDealData, "deal value must be a number", nil)
		}
		value = parsed
	}

	stage := ""
	if o.stageIndex >= 0 && o.stageIndex < len(o.stages) {
		stage = o.stages[o.stageIndex]
	}
	priority := createPriorities[o.priorityIndex]

	if err := domain.ValidateDealFields(title, value, stage, priority, o.stages); err != nil {
		return crm.CreateDealRequest{}, err
	}

	return crm.CreateDealRequest{
		Title:       title,
		Value:       value,
		Stage:       stage,
		ContactName: strings.TrimSpace(o.contact.Value()),
		Description: strings.TrimSpace(o.description.Value()),
		Priority:    string(priority),
		Position:    position(stage),
	}, nil
}

func (m *App) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	o := &m.create
	switch msg.String() {
	case "esc":
		m.mode = modeBoard
		return m, nil
	case "tab", "down":
		return m, o.setFocus(o.focus + 1)
	case "shift+tab", "up":
		return m, o.setFocus(o.focus - 1)
	case "left":
		switch o.focus {
		case createFieldStage:
			if o.stageIndex > 0 {
				o.stageIndex--
			}
			return m, nil
		case createFieldPriority:
			if o.priorityIndex > 0 {
				o.priorityIndex--
			}
			return m, nil
		}
	case "right":
		switch o.focus {
		case createFieldStage:
			if o.stageIndex < len(o.stages)-1 {
				o.stageIndex++
			}
			return m, nil
		case createFieldPriority:
			if o.priorityIndex < len(createPriorities)-1 {
				o.priorityIndex++
			}
			return m, nil
		}
	case "enter":
		return m, m.submitCreate()
	}

	if input := o.focusedInput(); input != nil {
		var cmd tea.Cmd
		*input, cmd = input.Update(msg)
		o.errMsg = ""
		return m, cmd
	}
	return m, nil
}

func (m *App) submitCreate() tea.Cmd {
	board := m.board()
	req, err := m.create.request(func(stage string) int {
		if m.placement == config.PlacementTail {
			return board.TailPosition(stage)
		}
		return 0
	})
	if err != nil {
		m.create.errMsg = err.Error()
		return nil
	}
	m.mode = modeBoard
	pending, _ := m.coordinator.CreateDeal(req)
	return m.dispatch(pending)
}

func (o *createOverlay) view(width int) string {
	line := func(label string, body string, focused bool) string {
		rendered := styleField.Render(label) + body
		if focused {
			return styleStageCursor.Render(">") + " " + rendered
		}
		return "  " + rendered
	}

	rows := []string{
		styleOverlayTitle.Render("New Deal"),
		"",
		line("Title", o.title.View(), o.focus == createFieldTitle),
		line("Value", o.value.View(), o.focus == createFieldValue),
		line("Contact", o.contact.View(), o.focus == createFieldContact),
		line("Description", o.description.View(), o.focus == createFieldDescription),
		line("Stage", selectorView(o.stages, o.stageIndex), o.focus == createFieldStage),
		line("Priority", selectorView(priorityNames(), o.priorityIndex), o.focus == createFieldPriority),
	}
	if o.errMsg != "" {
		rows = append(rows, "", styleOverlayError.Render(o.errMsg))
	}
	rows = append(rows, "", styleFooterMuted.Render("⏎ create · Tab next field · Esc cancel"))

	body := strings.Join(rows, "\n")
	return lipgloss.Place(width, lipgloss.Height(body)+4, lipgloss.Center, lipgloss.Center,
		styleOverlay.Render(body))
}

func selectorView(options []string, index int) string {
	if len(options) == 0 {
		return ""
	}
	if index < 0 || index >= len(options) {
		index = 0
	}
	return styleStatsDim.Render("◀ ") + styleVal.Render(options[index]) + styleStatsDim.Render(" ▶")
}

func priorityNames() []string {
	names := make([]string, len(createPriorities))
	for i, p := range createPriorities {
		names[i] = string(p)
	}
	return names
}
