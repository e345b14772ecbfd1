package crm

import "context"

// Client defines the operations the board needs from the deal store.
type Client interface {
	// ListPipeline fetches the full board snapshot: stages, deals, summary.
	ListPipeline(ctx context.Context) (PipelineSnapshot, error)
	// CreateDeal creates a deal and returns the canonical server record.
	CreateDeal(ctx context.Context, req CreateDealRequest) (Deal, error)
	// UpdateDeal applies a partial update and returns the merged record.
	UpdateDeal(ctx context.Context, id string, req UpdateDealRequest) (Deal, error)
	// MoveDeal reassigns a deal's stage and position. Moves have their own
	// endpoint because they carry reordering semantics server-side.
	MoveDeal(ctx context.Context, id, stage string, position int) (Deal, error)
	// DeleteDeal removes a deal permanently. There is no undo.
	DeleteDeal(ctx context.Context, id string) error
	// ReplaceStages swaps the entire stage list; partial stage updates are
	// not supported.
	ReplaceStages(ctx context.Context, stages []string) ([]string, error)
	// LookupContactName resolves a display name for a linked contact.
	// Best-effort: an unknown contact returns "" with no error.
	LookupContactName(ctx context.Context, contactID string) (string, error)
}
