// Package drag implements the pick-up/drop state machine for moving deals
// between stages. The machine tracks intent only; committing a drop is the
// caller's job, which keeps the machine trivially resettable when a drag is
// cancelled.
package drag

import (
	"dealboard/internal/config"
	"dealboard/internal/pipeline"
)

// Target is whatever the cursor currently sits on while dragging: a deal
// card, or an empty spot in a column. Stage is always set; DealID only when
// hovering a card.
type Target struct {
	DealID string
	Stage  string
}

// Move is a committed drop, ready to hand to the mutation coordinator.
type Move struct {
	DealID   string
	Stage    string
	Position int
}

// Machine is the drag lifecycle. Zero value is idle and usable.
type Machine struct {
	active      bool
	dealID      string
	originStage string
	target      Target
}

// Dragging reports whether a deal is currently picked up.
func (m *Machine) Dragging() bool {
	return m.active
}

// DealID returns the picked-up deal, or "" when idle.
func (m *Machine) DealID() string {
	if !m.active {
		return ""
	}
	return m.dealID
}

// Target returns the current hover target, or the zero Target when idle.
func (m *Machine) Target() Target {
	if !m.active {
		return Target{}
	}
	return m.target
}

// Begin picks up a deal. Beginning a new drag while one is active replaces
// it; the UI cannot express two simultaneous drags so there is nothing to
// preserve.
func (m *Machine) Begin(dealID, stage string) {
	m.active = true
	m.dealID = dealID
	m.originStage = stage
	m.target = Target{DealID: dealID, Stage: stage}
}

// Over updates the hover target. Ignored when idle.
func (m *Machine) Over(t Target) {
	if !m.active {
		return
	}
	m.target = t
}

// Cancel abandons the drag without moving anything.
func (m *Machine) Cancel() {
	*m = Machine{}
}

// Drop commits the drag against the current board snapshot. It returns the
// move to dispatch and true, or false when the drop is a no-op: dropping a
// deal onto its own stage (itself included) keeps the board exactly as it
// was, with no remote call. Either way the machine returns to idle.
func (m *Machine) Drop(p pipeline.Pipeline, placement string) (Move, bool) {
	if !m.active {
		return Move{}, false
	}
	dealID := m.dealID
	target := m.target
	origin := m.originStage
	*m = Machine{}

	stage := target.Stage
	if target.DealID != "" {
		if hovered, ok := p.DealByID(target.DealID); ok {
			stage = hovered.Stage
		}
	}
	if stage == "" || stage == origin || !p.HasStage(stage) {
		return Move{}, false
	}

	position := 0
	if placement == config.PlacementTail {
		position = p.TailPosition(stage)
	}
	return Move{DealID: dealID, Stage: stage, Position: position}, true
}
