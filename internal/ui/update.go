package ui

import (
	"strings"
	"time"

	"dealboard/internal/crm"
	"dealboard/internal/domain"
	"dealboard/internal/drag"
	"dealboard/internal/mutate"
	"dealboard/internal/pipeline"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !m.autoRefresh || m.refreshInterval <= 0 {
			return m, nil
		}
		cmds := []tea.Cmd{scheduleTick(m.refreshInterval)}
		if m.canAutoRefresh() {
			m.refreshInFlight = true
			cmds = append(cmds, m.refreshCmd())
		}
		return m, tea.Batch(cmds...)

	case refreshCompleteMsg:
		m.refreshInFlight = false
		if msg.err != nil {
			m.lastError = "refresh failed: " + msg.err.Error()
			m.showErrorToast = true
			m.errorToastStart = time.Now()
			return m, scheduleErrorToastTick()
		}
		// A mutation dispatched while the fetch was in flight makes the
		// listing stale; drop it and let the next tick try again.
		if m.coordinator.InFlight() > 0 || m.debouncer.Pending() > 0 {
			return m, nil
		}
		m.store.Apply(pipeline.SnapshotReplaced{Snapshot: msg.snapshot})
		m.clampCursor()
		return m, nil

	case mutationSettledMsg:
		outcome := m.coordinator.Settle(msg.settlement)
		m.clampCursor()
		if outcome == mutate.OutcomeRolledBack || outcome == mutate.OutcomeFailedSuperseded {
			return m, scheduleErrorToastTick()
		}
		return m, nil

	case debounceFlushMsg:
		req, ok := m.debouncer.Flush(msg.key, msg.gen)
		if !ok {
			return m, nil
		}
		return m, m.dispatch(m.coordinator.UpdateDeal(msg.key.EntityID, req))

	case contactResolvedMsg:
		if msg.name != "" {
			m.store.Apply(pipeline.DealChanged{
				ID:      msg.dealID,
				Request: crm.UpdateDealRequest{ContactName: crm.StringPtr(msg.name)},
			})
		}
		return m, nil

	case errorToastTickMsg:
		if !m.showErrorToast {
			return m, nil
		}
		if time.Since(m.errorToastStart) >= errorToastDuration {
			m.showErrorToast = false
			return m, nil
		}
		return m, scheduleErrorToastTick()

	case copyToastTickMsg:
		if !m.showCopyToast {
			return m, nil
		}
		if time.Since(m.copyToastStart) >= copyToastDuration {
			m.showCopyToast = false
			return m, nil
		}
		return m, scheduleCopyToastTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && m.mode == modeBoard && !m.editing {
		return m, tea.Quit
	}

	switch m.mode {
	case modeHelp:
		m.mode = modeBoard
		return m, nil
	case modeDetail:
		return m.handleDetailKey(msg)
	case modeCreate:
		return m.handleCreateKey(msg)
	case modeStages:
		return m.handleStagesKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	case modeLostReason:
		return m.handleLostReasonKey(msg)
	}

	if m.editing {
		return m.handleInlineEditKey(msg)
	}
	if m.dragging.Dragging() {
		return m.handleDragKey(msg)
	}
	return m.handleBoardKey(msg)
}

func (m *App) handleBoardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.row--
		m.clampCursor()
	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clampCursor()
	case key.Matches(msg, m.keys.Left):
		m.col--
		m.clampCursor()
	case key.Matches(msg, m.keys.Right):
		m.col++
		m.clampCursor()
	case key.Matches(msg, m.keys.Home):
		m.row = 0
	case key.Matches(msg, m.keys.End):
		m.row = len(m.board().StageDeals(m.currentStage())) - 1
		m.clampCursor()

	case key.Matches(msg, m.keys.Grab):
		// A placeholder stays put until its create settles and the
		// server-assigned id arrives.
		if deal, ok := m.selectedDeal(); ok && !mutate.IsPlaceholderID(deal.ID) {
			m.dragging.Begin(deal.ID, deal.Stage)
		}
	case key.Matches(msg, m.keys.Detail):
		if deal, ok := m.selectedDeal(); ok {
			m.detailDealID = deal.ID
			m.mode = modeDetail
			return m, m.resolveContactCmd(deal)
		}
	case key.Matches(msg, m.keys.NewDeal):
		m.create = newCreateOverlay(m.board().Stages(), m.currentStage())
		m.mode = modeCreate
	case key.Matches(msg, m.keys.Edit):
		return m, m.startInlineEdit()
	case key.Matches(msg, m.keys.Delete):
		if deal, ok := m.selectedDeal(); ok && !mutate.IsPlaceholderID(deal.ID) {
			m.deleteTargetID = deal.ID
			m.mode = modeConfirmDelete
		}
	case key.Matches(msg, m.keys.Stages):
		board := m.board()
		m.stages = newStageOverlay(board.Stages(), board.Deals())
		m.mode = modeStages
	case key.Matches(msg, m.keys.Refresh):
		if !m.refreshInFlight {
			m.refreshInFlight = true
			return m, m.refreshCmd()
		}
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyDealID()
	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
	}
	return m, nil
}

// handleDragKey navigates the drop target while a deal is picked up. The
// cursor doubles as the hover target; the board itself does not change until
// the drop commits.
func (m *App) handleDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.dragging.Cancel()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.row--
		m.clampCursor()
	case key.Matches(msg, m.keys.Down):
		m.row++
		m.clampCursor()
	case key.Matches(msg, m.keys.Left):
		m.col--
		m.clampCursor()
	case key.Matches(msg, m.keys.Right):
		m.col++
		m.clampCursor()
	case key.Matches(msg, m.keys.Grab), key.Matches(msg, m.keys.Drop):
		return m, m.commitDrop()
	default:
		return m, nil
	}
	m.dragging.Over(m.hoverTarget())
	return m, nil
}

func (m *App) hoverTarget() drag.Target {
	target := drag.Target{Stage: m.currentStage()}
	if deal, ok := m.selectedDeal(); ok {
		target.DealID = deal.ID
	}
	return target
}

func (m *App) commitDrop() tea.Cmd {
	board := m.board()
	move, ok := m.dragging.Drop(board, m.placement)
	if !ok {
		return nil
	}
	cmd := m.dispatch(m.coordinator.MoveDeal(move.DealID, move.Stage, move.Position))
	m.clampCursor()
	if domain.IsLostStage(move.Stage) {
		m.lostReasonDealID = move.DealID
		m.lostReasonInput.SetValue("")
		m.lostReasonInput.Focus()
		m.mode = modeLostReason
	}
	return cmd
}

func (m *App) currentStage() string {
	stages := m.board().Stages()
	if m.col < 0 || m.col >= len(stages) {
		return ""
	}
	return stages[m.col]
}

func (m *App) startInlineEdit() tea.Cmd {
	deal, ok := m.selectedDeal()
	if !ok || mutate.IsPlaceholderID(deal.ID) {
		return nil
	}
	m.editing = true
	m.editDealID = deal.ID
	m.editInput.SetValue(deal.Title)
	m.editInput.CursorEnd()
	return m.editInput.Focus()
}

// handleInlineEditKey routes keystrokes into the title editor. Every
// keystroke patches the board immediately; the remote write is debounced so
// a burst of typing becomes one call.
func (m *App) handleInlineEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		return m, m.finishInlineEdit()
	}

	var cmd tea.Cmd
	m.editInput, cmd = m.editInput.Update(msg)
	title := m.editInput.Value()

	m.coordinator.EditDeal(m.editDealID, crm.UpdateDealRequest{Title: crm.StringPtr(title)})
	dKey := mutate.DebounceKey{EntityID: m.editDealID, Field: "title"}
	gen := m.debouncer.Touch(dKey, crm.UpdateDealRequest{Title: crm.StringPtr(title)})
	return m, tea.Batch(cmd, scheduleDebounceFlush(m.debouncer.Window(), dKey, gen))
}

// finishInlineEdit closes the editor and ships any still-coalescing edit
// right away instead of waiting out the window.
func (m *App) finishInlineEdit() tea.Cmd {
	m.editing = false
	m.editInput.Blur()
	m.editDealID = ""

	var cmds []tea.Cmd
	for dKey, req := range m.debouncer.FlushAll() {
		cmds = append(cmds, m.dispatch(m.coordinator.UpdateDeal(dKey.EntityID, req)))
	}
	return tea.Batch(cmds...)
}

func (m *App) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Detail):
		m.mode = modeBoard
		m.detailDealID = ""
	case key.Matches(msg, m.keys.Edit):
		m.mode = modeBoard
		m.detailDealID = ""
		return m, m.startInlineEdit()
	case key.Matches(msg, m.keys.Copy):
		return m, m.copyDealID()
	}
	return m, nil
}

func (m *App) handleConfirmDeleteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		id := m.deleteTargetID
		m.deleteTargetID = ""
		m.mode = modeBoard
		cmd := m.dispatch(m.coordinator.DeleteDeal(id))
		m.clampCursor()
		return m, cmd
	case "n", "esc":
		m.deleteTargetID = ""
		m.mode = modeBoard
	}
	return m, nil
}

// handleLostReasonKey collects why the deal was lost after it lands in the
// lost bucket. Enter with an empty reason, or escape, skips the annotation.
func (m *App) handleLostReasonKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		reason := strings.TrimSpace(m.lostReasonInput.Value())
		dealID := m.lostReasonDealID
		m.lostReasonDealID = ""
		m.lostReasonInput.Blur()
		m.mode = modeBoard
		if reason == "" {
			return m, nil
		}
		return m, m.dispatch(m.coordinator.UpdateDeal(dealID, crm.UpdateDealRequest{
			LostReason: crm.StringPtr(reason),
		}))
	case "esc":
		m.lostReasonDealID = ""
		m.lostReasonInput.Blur()
		m.mode = modeBoard
		return m, nil
	}
	var cmd tea.Cmd
	m.lostReasonInput, cmd = m.lostReasonInput.Update(msg)
	return m, cmd
}

// resolveContactCmd fills in a missing contact name in the background while
// the detail view is open. Best-effort: failures just leave the field blank.
func (m *App) resolveContactCmd(deal crm.Deal) tea.Cmd {
	if deal.ContactID == "" || deal.ContactName != "" {
		return nil
	}
	client := m.client
	dealID := deal.ID
	contactID := deal.ContactID
	return func() tea.Msg {
		ctx, cancel := mutationContext()
		defer cancel()
		name, err := client.LookupContactName(ctx, contactID)
		if err != nil {
			return contactResolvedMsg{dealID: dealID}
		}
		return contactResolvedMsg{dealID: dealID, name: name}
	}
}
