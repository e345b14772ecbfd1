// Package stagecfg edits the pipeline's stage list under the board's
// configuration rules. An Editor accumulates changes against a working copy;
// nothing touches the server until the caller takes Result and dispatches a
// whole-list replacement.
package stagecfg

import (
	"fmt"

	"dealboard/internal/crm"
	"dealboard/internal/domain"
	appErrors "dealboard/internal/errors"
)

// Editor is a draft stage list plus the deal counts needed to enforce the
// no-removing-occupied-stages rule. Counts are taken from the snapshot the
// editor was opened against; deals that land while editing are caught by the
// server on save.
type Editor struct {
	stages     []string
	dealCounts map[string]int
}

// NewEditor opens a draft over the current stage list and deals.
func NewEditor(stages []string, deals []crm.Deal) *Editor {
	counts := make(map[string]int)
	for _, deal := range deals {
		counts[deal.Stage]++
	}
	return &Editor{
		stages:     append([]string(nil), stages...),
		dealCounts: counts,
	}
}

// Stages returns a copy of the draft list.
func (e *Editor) Stages() []string {
	return append([]string(nil), e.stages...)
}

// DealCount returns how many deals sat in the named stage when the editor
// was opened.
func (e *Editor) DealCount(name string) int {
	return e.dealCounts[name]
}

// Add validates a new stage name and inserts it before the first terminal
// stage, so working stages stay ahead of the won/lost buckets. If no
// terminal stage exists the name is appended. Validation order: blank name
// first, then duplicates; names are compared case-sensitively after
// trimming.
func (e *Editor) Add(raw string) error {
	name, ok := domain.ValidStageName(raw)
	if !ok {
		return appErrors.New(appErrors.CodeStageNameEmpty, "stage name cannot be empty", nil)
	}
	if domain.ContainsStage(e.stages, name) {
		return appErrors.New(appErrors.CodeStageNameTaken, fmt.Sprintf("stage %q already exists", name), nil)
	}

	insertAt := len(e.stages)
	for i, stage := range e.stages {
		if domain.IsTerminalStage(stage) {
			insertAt = i
			break
		}
	}
	e.stages = append(e.stages[:insertAt], append([]string{name}, e.stages[insertAt:]...)...)
	return nil
}

// Rename validates a replacement name for the stage at index. Deals keep
// their stage string server-side, so renaming an occupied stage is refused
// the same way removal is.
func (e *Editor) Rename(index int, raw string) error {
	if index < 0 || index >= len(e.stages) {
		return indexError(index)
	}
	name, ok := domain.ValidStageName(raw)
	if !ok {
		return appErrors.New(appErrors.CodeStageNameEmpty, "stage name cannot be empty", nil)
	}
	if name == e.stages[index] {
		return nil
	}
	if domain.ContainsStage(e.stages, name) {
		return appErrors.New(appErrors.CodeStageNameTaken, fmt.Sprintf("stage %q already exists", name), nil)
	}
	if count := e.dealCounts[e.stages[index]]; count > 0 {
		return appErrors.New(appErrors.CodeStageNotEmpty,
			fmt.Sprintf("stage %q still holds %d deal(s)", e.stages[index], count), nil)
	}
	e.stages[index] = name
	return nil
}

// Remove deletes the stage at index. Occupied stages cannot be removed, and
// the list never shrinks below the minimum.
func (e *Editor) Remove(index int) error {
	if index < 0 || index >= len(e.stages) {
		return indexError(index)
	}
	name := e.stages[index]
	if count := e.dealCounts[name]; count > 0 {
		return appErrors.New(appErrors.CodeStageNotEmpty,
			fmt.Sprintf("stage %q still holds %d deal(s)", name, count), nil)
	}
	if len(e.stages)-1 < domain.MinStages {
		return appErrors.New(appErrors.CodeStageListTooShort,
			fmt.Sprintf("a pipeline needs at least %d stages", domain.MinStages), nil)
	}
	e.stages = append(e.stages[:index], e.stages[index+1:]...)
	return nil
}

// MoveUp swaps the stage at index with its left neighbour. Moving the first
// stage is a no-op, not an error; the UI just has nowhere to go.
func (e *Editor) MoveUp(index int) error {
	if index < 0 || index >= len(e.stages) {
		return indexError(index)
	}
	if index == 0 {
		return nil
	}
	e.stages[index-1], e.stages[index] = e.stages[index], e.stages[index-1]
	return nil
}

// MoveDown swaps the stage at index with its right neighbour. Moving the
// last stage is a no-op.
func (e *Editor) MoveDown(index int) error {
	if index < 0 || index >= len(e.stages) {
		return indexError(index)
	}
	if index == len(e.stages)-1 {
		return nil
	}
	e.stages[index], e.stages[index+1] = e.stages[index+1], e.stages[index]
	return nil
}

// Result validates the draft as a whole and returns the list to ship. The
// per-operation checks make most failures impossible, but the draft is
// re-validated anyway so a future edit path cannot smuggle a bad list out.
func (e *Editor) Result() ([]string, error) {
	if len(e.stages) < domain.MinStages {
		return nil, appErrors.New(appErrors.CodeStageListTooShort,
			fmt.Sprintf("a pipeline needs at least %d stages", domain.MinStages), nil)
	}
	seen := make(map[string]struct{}, len(e.stages))
	for _, stage := range e.stages {
		name, ok := domain.ValidStageName(stage)
		if !ok {
			return nil, appErrors.New(appErrors.CodeStageNameEmpty, "stage name cannot be empty", nil)
		}
		if _, dup := seen[name]; dup {
			return nil, appErrors.New(appErrors.CodeStageNameTaken, fmt.Sprintf("stage %q already exists", name), nil)
		}
		seen[name] = struct{}{}
	}
	return e.Stages(), nil
}

func indexError(index int) error {
	return appErrors.New(appErrors.CodeStageIndexOutRange,
		fmt.Sprintf("stage index %d out of range", index), nil)
}
