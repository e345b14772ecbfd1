package mutate

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealboard/internal/crm"
	"dealboard/internal/domain"
	"dealboard/internal/pipeline"
)

type recordedFailure struct {
	Op       Op
	EntityID string
	Err      error
}

type recordingNotifier struct {
	failures []recordedFailure
}

func (n *recordingNotifier) MutationFailed(op Op, entityID string, err error) {
	n.failures = append(n.failures, recordedFailure{Op: op, EntityID: entityID, Err: err})
}

func seededDeal(id, stage string, position int) crm.Deal {
	return crm.Deal{
		ID:        id,
		Title:     "Deal " + id,
		Value:     2500,
		Stage:     stage,
		Priority:  string(domain.PriorityMedium),
		Position:  position,
		CreatedAt: "2026-08-01T10:00:00Z",
		UpdatedAt: "2026-08-01T10:00:00Z",
	}
}

func newTestCoordinator(t *testing.T, client crm.Client) (*Coordinator, *pipeline.Store, *recordingNotifier) {
	t.Helper()
	store := pipeline.NewStore(pipeline.New(domain.DefaultStages, []crm.Deal{
		seededDeal("dl-1", "New Lead", 0),
		seededDeal("dl-2", "Qualified", 0),
	}))
	notifier := &recordingNotifier{}
	fixed := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	coord := NewCoordinator(store, client, notifier, WithClock(func() time.Time { return fixed }))
	return coord, store, notifier
}

func TestCreateDealAppliesPlaceholderThenCanonical(t *testing.T) {
	client := crm.NewMockClient()
	client.CreateDealFn = func(_ context.Context, req crm.CreateDealRequest) (crm.Deal, error) {
		deal := seededDeal("dl-srv-1", req.Stage, req.Position)
		deal.Title = req.Title
		return deal, nil
	}
	coord, store, _ := newTestCoordinator(t, client)

	pending, tempID := coord.CreateDeal(crm.CreateDealRequest{
		Title: "Acme renewal", Value: 9000, Stage: "New Lead", Priority: "high",
	})

	if !IsPlaceholderID(tempID) {
		t.Fatalf("temp id = %q, want a placeholder id", tempID)
	}
	if _, ok := store.Current().DealByID(tempID); !ok {
		t.Fatal("placeholder missing after dispatch")
	}
	if coord.InFlight() != 1 {
		t.Fatalf("in flight = %d, want 1", coord.InFlight())
	}

	outcome := coord.Settle(pending.Execute(context.Background()))
	if outcome != OutcomeApplied {
		t.Fatalf("outcome = %v, want OutcomeApplied", outcome)
	}
	if _, ok := store.Current().DealByID(tempID); ok {
		t.Error("placeholder survived settlement")
	}
	if _, ok := store.Current().DealByID("dl-srv-1"); !ok {
		t.Error("canonical deal missing after settlement")
	}
	if coord.InFlight() != 0 {
		t.Errorf("in flight = %d, want 0", coord.InFlight())
	}
}

func TestCreateDealFailureRemovesPlaceholder(t *testing.T) {
	client := crm.NewMockClient()
	client.CreateDealFn = func(context.Context, crm.CreateDealRequest) (crm.Deal, error) {
		return crm.Deal{}, errors.New("boom")
	}
	coord, store, notifier := newTestCoordinator(t, client)

	pending, tempID := coord.CreateDeal(crm.CreateDealRequest{Title: "Doomed", Stage: "New Lead"})
	outcome := coord.Settle(pending.Execute(context.Background()))

	if outcome != OutcomeRolledBack {
		t.Fatalf("outcome = %v, want OutcomeRolledBack", outcome)
	}
	if _, ok := store.Current().DealByID(tempID); ok {
		t.Error("placeholder survived rollback")
	}
	if len(notifier.failures) != 1 {
		t.Fatalf("failures = %d, want exactly 1", len(notifier.failures))
	}
	if notifier.failures[0].Op != OpCreate {
		t.Errorf("failure op = %v, want OpCreate", notifier.failures[0].Op)
	}
}

func TestUpdateDealFailureRestoresPriorRecord(t *testing.T) {
	client := crm.NewMockClient()
	client.UpdateDealFn = func(context.Context, string, crm.UpdateDealRequest) (crm.Deal, error) {
		return crm.Deal{}, errors.New("boom")
	}
	coord, store, notifier := newTestCoordinator(t, client)

	pending := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Renamed")})
	if deal, _ := store.Current().DealByID("dl-1"); deal.Title != "Renamed" {
		t.Fatalf("optimistic title = %q, want Renamed", deal.Title)
	}

	coord.Settle(pending.Execute(context.Background()))

	deal, _ := store.Current().DealByID("dl-1")
	if deal.Title != "Deal dl-1" {
		t.Errorf("title after rollback = %q, want Deal dl-1", deal.Title)
	}
	if len(notifier.failures) != 1 {
		t.Errorf("failures = %d, want exactly 1", len(notifier.failures))
	}
}

func TestDebouncedEditRollsBackToPreEditRecord(t *testing.T) {
	client := crm.NewMockClient()
	client.UpdateDealFn = func(context.Context, string, crm.UpdateDealRequest) (crm.Deal, error) {
		return crm.Deal{}, errors.New("boom")
	}
	coord, store, _ := newTestCoordinator(t, client)

	// Keystrokes patch the board before any write ships.
	coord.EditDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Deal dl-1!")})
	coord.EditDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Deal dl-1!!")})
	if deal, _ := store.Current().DealByID("dl-1"); deal.Title != "Deal dl-1!!" {
		t.Fatalf("optimistic title = %q, want Deal dl-1!!", deal.Title)
	}

	pending := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Deal dl-1!!")})
	outcome := coord.Settle(pending.Execute(context.Background()))
	if outcome != OutcomeRolledBack {
		t.Fatalf("outcome = %v, want OutcomeRolledBack", outcome)
	}
	deal, _ := store.Current().DealByID("dl-1")
	if deal.Title != "Deal dl-1" {
		t.Errorf("title = %q, want the record before the first keystroke", deal.Title)
	}
}

func TestEditDealSupersedesInFlightMerge(t *testing.T) {
	client := crm.NewMockClient()
	client.UpdateDealFn = func(_ context.Context, id string, req crm.UpdateDealRequest) (crm.Deal, error) {
		deal := seededDeal(id, "New Lead", 0)
		return req.ApplyTo(deal), nil
	}
	coord, store, _ := newTestCoordinator(t, client)

	coord.EditDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Re")})
	first := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Re")})
	firstResult := first.Execute(context.Background())

	// More typing lands while the first write is in flight. Its canonical
	// record is older than the board and must not be merged.
	coord.EditDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Renamed")})

	if outcome := coord.Settle(firstResult); outcome != OutcomeSuperseded {
		t.Fatalf("outcome = %v, want OutcomeSuperseded", outcome)
	}
	deal, _ := store.Current().DealByID("dl-1")
	if deal.Title != "Renamed" {
		t.Errorf("title = %q, want the newer keystrokes kept", deal.Title)
	}
}

func TestRollbackLeavesOtherEntitiesAlone(t *testing.T) {
	client := crm.NewMockClient()
	client.UpdateDealFn = func(_ context.Context, id string, req crm.UpdateDealRequest) (crm.Deal, error) {
		if id == "dl-1" {
			return crm.Deal{}, errors.New("boom")
		}
		deal := seededDeal(id, "Qualified", 0)
		return req.ApplyTo(deal), nil
	}
	coord, store, _ := newTestCoordinator(t, client)

	failing := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("A")})
	surviving := coord.UpdateDeal("dl-2", crm.UpdateDealRequest{Title: crm.StringPtr("B")})

	coord.Settle(surviving.Execute(context.Background()))
	coord.Settle(failing.Execute(context.Background()))

	deal1, _ := store.Current().DealByID("dl-1")
	deal2, _ := store.Current().DealByID("dl-2")
	if deal1.Title != "Deal dl-1" {
		t.Errorf("dl-1 title = %q, want rolled back", deal1.Title)
	}
	if deal2.Title != "B" {
		t.Errorf("dl-2 title = %q, want B kept", deal2.Title)
	}
}

func TestStaleSettlementIsDiscarded(t *testing.T) {
	client := crm.NewMockClient()
	client.UpdateDealFn = func(_ context.Context, id string, req crm.UpdateDealRequest) (crm.Deal, error) {
		deal := seededDeal(id, "New Lead", 0)
		return req.ApplyTo(deal), nil
	}
	coord, store, _ := newTestCoordinator(t, client)

	first := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("First")})
	second := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Second")})

	firstResult := first.Execute(context.Background())
	secondResult := second.Execute(context.Background())

	// The newer settlement lands first; the older one must not clobber it.
	if outcome := coord.Settle(secondResult); outcome != OutcomeApplied {
		t.Fatalf("second outcome = %v, want OutcomeApplied", outcome)
	}
	if outcome := coord.Settle(firstResult); outcome != OutcomeStale {
		t.Fatalf("first outcome = %v, want OutcomeStale", outcome)
	}

	deal, _ := store.Current().DealByID("dl-1")
	if deal.Title != "Second" {
		t.Errorf("title = %q, want Second", deal.Title)
	}
}

func TestSupersededSuccessSkipsMerge(t *testing.T) {
	client := crm.NewMockClient()
	client.UpdateDealFn = func(_ context.Context, id string, req crm.UpdateDealRequest) (crm.Deal, error) {
		deal := seededDeal(id, "New Lead", 0)
		return req.ApplyTo(deal), nil
	}
	coord, store, _ := newTestCoordinator(t, client)

	first := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("First")})
	firstResult := first.Execute(context.Background())
	coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Second")})

	// First settles while the second is still in flight: its canonical
	// record is older than the local state and must not be merged.
	if outcome := coord.Settle(firstResult); outcome != OutcomeSuperseded {
		t.Fatalf("outcome = %v, want OutcomeSuperseded", outcome)
	}
	deal, _ := store.Current().DealByID("dl-1")
	if deal.Title != "Second" {
		t.Errorf("title = %q, want optimistic Second kept", deal.Title)
	}
}

func TestSupersededFailureReportsWithoutRollback(t *testing.T) {
	client := crm.NewMockClient()
	client.UpdateDealFn = func(context.Context, string, crm.UpdateDealRequest) (crm.Deal, error) {
		return crm.Deal{}, errors.New("boom")
	}
	coord, store, notifier := newTestCoordinator(t, client)

	first := coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("First")})
	firstResult := first.Execute(context.Background())
	coord.UpdateDeal("dl-1", crm.UpdateDealRequest{Title: crm.StringPtr("Second")})

	if outcome := coord.Settle(firstResult); outcome != OutcomeFailedSuperseded {
		t.Fatalf("outcome = %v, want OutcomeFailedSuperseded", outcome)
	}
	deal, _ := store.Current().DealByID("dl-1")
	if deal.Title != "Second" {
		t.Errorf("title = %q, newer edit must survive the older failure", deal.Title)
	}
	if len(notifier.failures) != 1 {
		t.Errorf("failures = %d, want exactly 1", len(notifier.failures))
	}
}

func TestMoveDealRollbackRestoresStageAndPosition(t *testing.T) {
	client := crm.NewMockClient()
	client.MoveDealFn = func(context.Context, string, string, int) (crm.Deal, error) {
		return crm.Deal{}, errors.New("boom")
	}
	coord, store, _ := newTestCoordinator(t, client)

	pending := coord.MoveDeal("dl-1", "Qualified", 0)
	if deal, _ := store.Current().DealByID("dl-1"); deal.Stage != "Qualified" {
		t.Fatalf("optimistic stage = %q, want Qualified", deal.Stage)
	}

	coord.Settle(pending.Execute(context.Background()))

	deal, _ := store.Current().DealByID("dl-1")
	if deal.Stage != "New Lead" || deal.Position != 0 {
		t.Errorf("after rollback = (%q, %d), want (New Lead, 0)", deal.Stage, deal.Position)
	}
}

func TestDeleteDealFailureRestoresRecord(t *testing.T) {
	client := crm.NewMockClient()
	client.DeleteDealFn = func(context.Context, string) error {
		return errors.New("boom")
	}
	coord, store, notifier := newTestCoordinator(t, client)

	pending := coord.DeleteDeal("dl-2")
	if _, ok := store.Current().DealByID("dl-2"); ok {
		t.Fatal("deal still present after optimistic delete")
	}

	outcome := coord.Settle(pending.Execute(context.Background()))
	if outcome != OutcomeRolledBack {
		t.Fatalf("outcome = %v, want OutcomeRolledBack", outcome)
	}
	restored, ok := store.Current().DealByID("dl-2")
	if !ok {
		t.Fatal("deal missing after rollback")
	}
	if restored.Value != 2500 {
		t.Errorf("restored value = %v, want full record back", restored.Value)
	}
	if notifier.failures[0].Op != OpDelete {
		t.Errorf("failure op = %v, want OpDelete", notifier.failures[0].Op)
	}
}

func TestReplaceStagesRollsBackOnFailure(t *testing.T) {
	client := crm.NewMockClient()
	client.ReplaceStagesFn = func(context.Context, []string) ([]string, error) {
		return nil, errors.New("boom")
	}
	coord, store, _ := newTestCoordinator(t, client)
	before := store.Current().Stages()

	pending := coord.ReplaceStages([]string{"New Lead", "Won", "Lost"})
	coord.Settle(pending.Execute(context.Background()))

	after := store.Current().Stages()
	if len(after) != len(before) {
		t.Fatalf("stage count = %d, want %d", len(after), len(before))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Errorf("stage[%d] = %q, want %q", i, after[i], before[i])
		}
	}
}

func TestFailureMessages(t *testing.T) {
	cases := map[Op]string{
		OpCreate: "create failed",
		OpUpdate: "update failed",
		OpMove:   "move failed",
		OpDelete: "delete failed",
		OpStages: "stage-list save failed",
	}
	for op, want := range cases {
		if got := op.FailureMessage(); got != want {
			t.Errorf("FailureMessage(%v) = %q, want %q", op, got, want)
		}
	}
}
