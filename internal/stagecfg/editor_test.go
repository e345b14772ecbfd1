package stagecfg

import (
	"reflect"
	"testing"

	"dealboard/internal/crm"
	"dealboard/internal/domain"
	appErrors "dealboard/internal/errors"
)

func newTestEditor() *Editor {
	return NewEditor(domain.DefaultStages, []crm.Deal{
		{ID: "dl-1", Stage: "New Lead"},
		{ID: "dl-2", Stage: "New Lead"},
		{ID: "dl-3", Stage: "Won"},
	})
}

func TestAddInsertsBeforeFirstTerminalStage(t *testing.T) {
	e := newTestEditor()

	if err := e.Add("Contract Review"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	want := []string{"New Lead", "Qualified", "Proposal", "Negotiation", "Contract Review", "Won", "Lost"}
	if got := e.Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("stages = %v, want %v", got, want)
	}
}

func TestAddAppendsWhenNoTerminalStage(t *testing.T) {
	e := NewEditor([]string{"A", "B"}, nil)

	if err := e.Add("C"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := e.Stages(); got[len(got)-1] != "C" {
		t.Errorf("stages = %v, want C appended", got)
	}
}

func TestAddRejectsBlankName(t *testing.T) {
	e := newTestEditor()

	err := e.Add("   ")
	if !appErrors.IsCode(err, appErrors.CodeStageNameEmpty) {
		t.Errorf("err = %v, want stage_name_empty", err)
	}
}

func TestAddRejectsDuplicateAfterTrim(t *testing.T) {
	e := newTestEditor()

	err := e.Add("  Qualified  ")
	if !appErrors.IsCode(err, appErrors.CodeStageNameTaken) {
		t.Errorf("err = %v, want stage_name_taken", err)
	}
}

func TestAddDuplicateCheckIsCaseSensitive(t *testing.T) {
	e := newTestEditor()

	if err := e.Add("qualified"); err != nil {
		t.Errorf("lowercase variant rejected: %v", err)
	}
}

func TestBlankBeatsDuplicateInRuleOrder(t *testing.T) {
	// A blank name can never collide, so the empty-name rule must fire
	// before the duplicate check gets a chance to.
	e := NewEditor([]string{"", "Won"}, nil)

	err := e.Add(" ")
	if !appErrors.IsCode(err, appErrors.CodeStageNameEmpty) {
		t.Errorf("err = %v, want stage_name_empty", err)
	}
}

func TestRemoveOccupiedStageRefused(t *testing.T) {
	e := newTestEditor()

	err := e.Remove(0) // New Lead holds two deals
	if !appErrors.IsCode(err, appErrors.CodeStageNotEmpty) {
		t.Errorf("err = %v, want stage_not_empty", err)
	}
	if len(e.Stages()) != len(domain.DefaultStages) {
		t.Error("refused removal still changed the draft")
	}
}

func TestRemoveEmptyStage(t *testing.T) {
	e := newTestEditor()

	if err := e.Remove(1); err != nil { // Qualified is empty
		t.Fatalf("Remove: %v", err)
	}
	if domain.ContainsStage(e.Stages(), "Qualified") {
		t.Error("Qualified still present after removal")
	}
}

func TestRemoveBelowMinimumRefused(t *testing.T) {
	e := NewEditor([]string{"A", "B"}, nil)

	err := e.Remove(0)
	if !appErrors.IsCode(err, appErrors.CodeStageListTooShort) {
		t.Errorf("err = %v, want stage_list_too_short", err)
	}
}

func TestRemoveIndexOutOfRange(t *testing.T) {
	e := newTestEditor()

	for _, index := range []int{-1, len(domain.DefaultStages)} {
		err := e.Remove(index)
		if !appErrors.IsCode(err, appErrors.CodeStageIndexOutRange) {
			t.Errorf("Remove(%d) = %v, want stage_index_out_of_range", index, err)
		}
	}
}

func TestRenameEmptyStage(t *testing.T) {
	e := newTestEditor()

	if err := e.Rename(1, "Discovery"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if e.Stages()[1] != "Discovery" {
		t.Errorf("stages[1] = %q, want Discovery", e.Stages()[1])
	}
}

func TestRenameOccupiedStageRefused(t *testing.T) {
	e := newTestEditor()

	err := e.Rename(0, "Inbound")
	if !appErrors.IsCode(err, appErrors.CodeStageNotEmpty) {
		t.Errorf("err = %v, want stage_not_empty", err)
	}
}

func TestRenameToSameNameIsNoOp(t *testing.T) {
	e := newTestEditor()

	if err := e.Rename(0, "New Lead"); err != nil {
		t.Errorf("renaming to the current name errored: %v", err)
	}
}

func TestMoveUpAndDown(t *testing.T) {
	e := newTestEditor()

	if err := e.MoveUp(1); err != nil {
		t.Fatalf("MoveUp: %v", err)
	}
	if got := e.Stages()[0]; got != "Qualified" {
		t.Errorf("stages[0] = %q, want Qualified", got)
	}

	if err := e.MoveDown(0); err != nil {
		t.Fatalf("MoveDown: %v", err)
	}
	if got := e.Stages()[0]; got != "New Lead" {
		t.Errorf("stages[0] = %q, want New Lead back", got)
	}
}

func TestMoveAtEdgesIsNoOp(t *testing.T) {
	e := newTestEditor()
	before := e.Stages()

	if err := e.MoveUp(0); err != nil {
		t.Errorf("MoveUp(0): %v", err)
	}
	if err := e.MoveDown(len(before) - 1); err != nil {
		t.Errorf("MoveDown(last): %v", err)
	}
	if !reflect.DeepEqual(e.Stages(), before) {
		t.Error("edge moves changed the draft")
	}
}

func TestResultRevalidatesDraft(t *testing.T) {
	e := newTestEditor()
	if err := e.Add("Contract Review"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	stages, err := e.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(stages) != len(domain.DefaultStages)+1 {
		t.Errorf("result has %d stages, want %d", len(stages), len(domain.DefaultStages)+1)
	}

	// Result hands out a copy; mutating it must not touch the draft.
	stages[0] = "Tampered"
	if e.Stages()[0] == "Tampered" {
		t.Error("Result aliases the draft's backing array")
	}
}

func TestResultRejectsShortList(t *testing.T) {
	e := NewEditor([]string{"Only"}, nil)

	if _, err := e.Result(); !appErrors.IsCode(err, appErrors.CodeStageListTooShort) {
		t.Errorf("err = %v, want stage_list_too_short", err)
	}
}
