package pipeline

import "dealboard/internal/crm"

// Patch is one board edit. Patches are applied through Pipeline.Apply and
// always produce a new snapshot; a patch never mutates the input.
type Patch interface {
	apply(Pipeline) Pipeline
}

// DealAdded inserts a deal. Deals targeting a stage that is not in the
// current list are dropped, keeping stage membership intact.
type DealAdded struct {
	Deal crm.Deal
}

func (dp DealAdded) apply(p Pipeline) Pipeline {
	if !p.HasStage(dp.Deal.Stage) {
		return p
	}
	next := New(p.stages, p.deals)
	next.deals = append(next.deals, dp.Deal)
	return next
}

// DealChanged overlays a partial update onto one deal. Unknown ids are a
// no-op so a late edit against a deleted deal cannot resurrect it.
type DealChanged struct {
	ID      string
	Request crm.UpdateDealRequest
}

func (dp DealChanged) apply(p Pipeline) Pipeline {
	next := New(p.stages, p.deals)
	for i := range next.deals {
		if next.deals[i].ID == dp.ID {
			next.deals[i] = dp.Request.ApplyTo(next.deals[i])
			break
		}
	}
	return next
}

// DealRemoved deletes a deal by id. Unknown ids are a no-op.
type DealRemoved struct {
	ID string
}

func (dp DealRemoved) apply(p Pipeline) Pipeline {
	next := New(p.stages, nil)
	next.deals = make([]crm.Deal, 0, len(p.deals))
	for _, deal := range p.deals {
		if deal.ID != dp.ID {
			next.deals = append(next.deals, deal)
		}
	}
	return next
}

// DealMoved reassigns a deal's stage and position. Moves to stages not in
// the current list are dropped.
type DealMoved struct {
	ID       string
	Stage    string
	Position int
}

func (dp DealMoved) apply(p Pipeline) Pipeline {
	if !p.HasStage(dp.Stage) {
		return p
	}
	next := New(p.stages, p.deals)
	for i := range next.deals {
		if next.deals[i].ID == dp.ID {
			next.deals[i].Stage = dp.Stage
			next.deals[i].Position = dp.Position
			break
		}
	}
	return next
}

// DealReconciled replaces a locally known deal with the server's canonical
// record. OptimisticID may differ from Deal.ID when a create settles and the
// placeholder id gives way to the server-assigned one.
type DealReconciled struct {
	OptimisticID string
	Deal         crm.Deal
}

func (dp DealReconciled) apply(p Pipeline) Pipeline {
	next := New(p.stages, p.deals)
	for i := range next.deals {
		if next.deals[i].ID == dp.OptimisticID {
			next.deals[i] = dp.Deal
			return next
		}
	}
	return next
}

// StagesReplaced swaps in a whole new stage list. Callers validate the list
// first; deals in stages absent from the new list are kept in the flat list
// and simply stop rendering until a later snapshot resolves them.
type StagesReplaced struct {
	Stages []string
}

func (sp StagesReplaced) apply(p Pipeline) Pipeline {
	return New(sp.Stages, p.deals)
}

// SnapshotReplaced discards local state in favour of a fresh remote listing.
type SnapshotReplaced struct {
	Snapshot crm.PipelineSnapshot
}

func (sp SnapshotReplaced) apply(Pipeline) Pipeline {
	return FromSnapshot(sp.Snapshot)
}
