package ui

import (
	"fmt"
	"strings"

	"dealboard/internal/crm"
	"dealboard/internal/domain"
	"dealboard/internal/stagecfg"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// stageOverlay edits the stage list through a draft editor. Nothing is sent
// to the backend until the user saves, at which point the whole list ships
// as one replacement.
type stageOverlay struct {
	editor *stagecfg.Editor
	cursor int

	nameInput textinput.Model
	adding    bool
	renaming  bool

	errMsg string
}

func newStageOverlay(stages []string, deals []crm.Deal) stageOverlay {
	input := textinput.New()
	input.Placeholder = "Stage name"
	input.CharLimit = 40
	return stageOverlay{
		editor:    stagecfg.NewEditor(stages, deals),
		nameInput: input,
	}
}

func (o *stageOverlay) entering() bool {
	return o.adding || o.renaming
}

func (o *stageOverlay) clampCursor() {
	count := len(o.editor.Stages())
	if o.cursor >= count {
		o.cursor = count - 1
	}
	if o.cursor < 0 {
		o.cursor = 0
	}
}

func (m *App) handleStagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	o := &m.stages

	if o.entering() {
		switch msg.String() {
		case "enter":
			name := o.nameInput.Value()
			var err error
			if o.adding {
				err = o.editor.Add(name)
			} else {
				err = o.editor.Rename(o.cursor, name)
			}
			if err != nil {
				o.errMsg = err.Error()
				return m, nil
			}
			o.adding, o.renaming = false, false
			o.errMsg = ""
			o.nameInput.Blur()
			o.nameInput.SetValue("")
			return m, nil
		case "esc":
			o.adding, o.renaming = false, false
			o.errMsg = ""
			o.nameInput.Blur()
			o.nameInput.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		o.nameInput, cmd = o.nameInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.mode = modeBoard
		return m, nil
	case "up", "k":
		o.cursor--
		o.clampCursor()
	case "down", "j":
		o.cursor++
		o.clampCursor()
	case "K", "shift+up":
		if err := o.editor.MoveUp(o.cursor); err == nil && o.cursor > 0 {
			o.cursor--
		}
	case "J", "shift+down":
		if err := o.editor.MoveDown(o.cursor); err == nil && o.cursor < len(o.editor.Stages())-1 {
			o.cursor++
		}
	case "a", "n":
		o.adding = true
		o.errMsg = ""
		o.nameInput.SetValue("")
		return m, o.nameInput.Focus()
	case "e":
		o.renaming = true
		o.errMsg = ""
		o.nameInput.SetValue(o.editor.Stages()[o.cursor])
		o.nameInput.CursorEnd()
		return m, o.nameInput.Focus()
	case "d", "x":
		if err := o.editor.Remove(o.cursor); err != nil {
			o.errMsg = err.Error()
		} else {
			o.errMsg = ""
			o.clampCursor()
		}
	case "enter", "s":
		return m, m.saveStages()
	}
	return m, nil
}

func (m *App) saveStages() tea.Cmd {
	stages, err := m.stages.editor.Result()
	if err != nil {
		m.stages.errMsg = err.Error()
		return nil
	}
	m.mode = modeBoard
	cmd := m.dispatch(m.coordinator.ReplaceStages(stages))
	m.clampCursor()
	return cmd
}

func (o *stageOverlay) view(width int) string {
	rows := []string{
		styleOverlayTitle.Render("Pipeline Stages"),
		"",
	}
	for i, stage := range o.editor.Stages() {
		label := stage
		if count := o.editor.DealCount(stage); count > 0 {
			label = fmt.Sprintf("%s  %s", stage, styleStatsDim.Render(fmt.Sprintf("(%d)", count)))
		}
		if domain.IsTerminalStage(stage) {
			label = styleStageTerminal.Render(stage)
		}
		if i == o.cursor && !o.entering() {
			rows = append(rows, styleStageCursor.Render("> "+stage))
			continue
		}
		rows = append(rows, "  "+label)
	}

	if o.entering() {
		verb := "Add stage"
		if o.renaming {
			verb = "Rename stage"
		}
		rows = append(rows, "", styleField.Render(verb)+o.nameInput.View())
	}
	if o.errMsg != "" {
		rows = append(rows, "", styleOverlayError.Render(o.errMsg))
	}
	rows = append(rows, "",
		styleFooterMuted.Render("a add · e rename · d delete · J/K reorder · ⏎ save · Esc close"))

	body := strings.Join(rows, "\n")
	return lipgloss.Place(width, lipgloss.Height(body)+4, lipgloss.Center, lipgloss.Center,
		styleOverlay.Render(body))
}
