package crm

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteClient(t *testing.T) *SQLiteClient {
	t.Helper()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client, err := NewSQLiteClient(
		filepath.Join(t.TempDir(), "board.db"),
		WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("NewSQLiteClient: %v", err)
	}
	return client
}

func TestSQLiteClientCreateAndList(t *testing.T) {
	client := newTestSQLiteClient(t)
	ctx := context.Background()

	deal, err := client.CreateDeal(ctx, CreateDealRequest{
		Title: "Acme", Value: 5000, Stage: "New Lead",
		Tags: []string{"inbound"}, CustomFields: map[string]string{"region": "EMEA"},
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if deal.ID == "" {
		t.Fatal("expected generated deal id")
	}
	if deal.Priority != "medium" {
		t.Errorf("priority = %q, want default medium", deal.Priority)
	}

	snapshot, err := client.ListPipeline(ctx)
	if err != nil {
		t.Fatalf("ListPipeline: %v", err)
	}
	if len(snapshot.Deals) != 1 {
		t.Fatalf("deal count = %d, want 1", len(snapshot.Deals))
	}
	got := snapshot.Deals[0]
	if got.Title != "Acme" || got.Value != 5000 || got.Stage != "New Lead" {
		t.Errorf("round-tripped deal mismatch: %+v", got)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "inbound" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.CustomFields["region"] != "EMEA" {
		t.Errorf("custom fields = %v", got.CustomFields)
	}
	if snapshot.Summary.ByStage["New Lead"].Count != 1 {
		t.Errorf("summary = %+v", snapshot.Summary)
	}
	// Default stage list until configured otherwise.
	if len(snapshot.Stages) != 6 {
		t.Errorf("stages = %v", snapshot.Stages)
	}
}

func TestSQLiteClientUpdateIsPartial(t *testing.T) {
	client := newTestSQLiteClient(t)
	ctx := context.Background()

	deal, err := client.CreateDeal(ctx, CreateDealRequest{Title: "Acme", Value: 5000, Stage: "New Lead"})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	updated, err := client.UpdateDeal(ctx, deal.ID, UpdateDealRequest{Value: Float64Ptr(7500)})
	if err != nil {
		t.Fatalf("UpdateDeal: %v", err)
	}
	if updated.Value != 7500 {
		t.Errorf("value = %v, want 7500", updated.Value)
	}
	if updated.Title != "Acme" {
		t.Errorf("title should be untouched, got %q", updated.Title)
	}
}

func TestSQLiteClientMoveDeal(t *testing.T) {
	client := newTestSQLiteClient(t)
	ctx := context.Background()

	deal, err := client.CreateDeal(ctx, CreateDealRequest{Title: "Acme", Stage: "New Lead"})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	moved, err := client.MoveDeal(ctx, deal.ID, "Won", 0)
	if err != nil {
		t.Fatalf("MoveDeal: %v", err)
	}
	if moved.Stage != "Won" || moved.Position != 0 {
		t.Errorf("moved deal = %+v", moved)
	}

	snapshot, err := client.ListPipeline(ctx)
	if err != nil {
		t.Fatalf("ListPipeline: %v", err)
	}
	if snapshot.Summary.ByStage["Won"].Count != 1 {
		t.Errorf("Won summary = %+v", snapshot.Summary.ByStage["Won"])
	}
}

func TestSQLiteClientDeleteDeal(t *testing.T) {
	client := newTestSQLiteClient(t)
	ctx := context.Background()

	deal, err := client.CreateDeal(ctx, CreateDealRequest{Title: "Acme", Stage: "New Lead"})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}
	if err := client.DeleteDeal(ctx, deal.ID); err != nil {
		t.Fatalf("DeleteDeal: %v", err)
	}
	if err := client.DeleteDeal(ctx, deal.ID); !IsNotFound(err) {
		t.Errorf("second delete should be not-found, got %v", err)
	}
}

func TestSQLiteClientReplaceStages(t *testing.T) {
	client := newTestSQLiteClient(t)
	ctx := context.Background()

	stages, err := client.ReplaceStages(ctx, []string{" New ", "Working", "Won", "Lost"})
	if err != nil {
		t.Fatalf("ReplaceStages: %v", err)
	}
	if stages[0] != "New" {
		t.Errorf("stage names should be trimmed, got %q", stages[0])
	}

	snapshot, err := client.ListPipeline(ctx)
	if err != nil {
		t.Fatalf("ListPipeline: %v", err)
	}
	if len(snapshot.Stages) != 4 || snapshot.Stages[1] != "Working" {
		t.Errorf("stages = %v", snapshot.Stages)
	}

	if _, err := client.ReplaceStages(ctx, []string{"Only"}); err == nil {
		t.Error("expected rejection of single-stage pipeline")
	}
	if _, err := client.ReplaceStages(ctx, []string{"A", "  "}); err == nil {
		t.Error("expected rejection of blank stage name")
	}
}

func TestSQLiteClientLookupContactName(t *testing.T) {
	client := newTestSQLiteClient(t)
	ctx := context.Background()

	_, err := client.CreateDeal(ctx, CreateDealRequest{
		Title: "Acme", Stage: "New Lead", ContactID: "ct-1", ContactName: "Jordan Ng",
	})
	if err != nil {
		t.Fatalf("CreateDeal: %v", err)
	}

	name, err := client.LookupContactName(ctx, "ct-1")
	if err != nil {
		t.Fatalf("LookupContactName: %v", err)
	}
	if name != "Jordan Ng" {
		t.Errorf("name = %q", name)
	}

	name, err = client.LookupContactName(ctx, "ct-unknown")
	if err != nil || name != "" {
		t.Errorf("unknown contact should resolve to empty name without error, got %q, %v", name, err)
	}
}
