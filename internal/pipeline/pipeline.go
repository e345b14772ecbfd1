// Package pipeline holds the canonical board state: the ordered stage list
// and the flat deal list, with pure derivations over both. Values are
// immutable; every change goes through Apply, which returns a fresh Pipeline
// and leaves the receiver untouched so any prior snapshot can be restored
// byte-for-byte.
package pipeline

import (
	"sort"

	"dealboard/internal/crm"
)

// Pipeline is one immutable board snapshot.
type Pipeline struct {
	stages []string
	deals  []crm.Deal
}

// New constructs a Pipeline from a stage list and deals. Inputs are copied.
func New(stages []string, deals []crm.Deal) Pipeline {
	return Pipeline{
		stages: append([]string(nil), stages...),
		deals:  append([]crm.Deal(nil), deals...),
	}
}

// FromSnapshot constructs a Pipeline from a remote listing.
func FromSnapshot(snapshot crm.PipelineSnapshot) Pipeline {
	return New(snapshot.Stages, snapshot.Deals)
}

// Stages returns a copy of the ordered stage list.
func (p Pipeline) Stages() []string {
	return append([]string(nil), p.stages...)
}

// Deals returns a copy of the flat deal list.
func (p Pipeline) Deals() []crm.Deal {
	return append([]crm.Deal(nil), p.deals...)
}

// DealByID looks up a deal in the snapshot.
func (p Pipeline) DealByID(id string) (crm.Deal, bool) {
	for _, deal := range p.deals {
		if deal.ID == id {
			return deal, true
		}
	}
	return crm.Deal{}, false
}

// HasStage reports whether name is in the current stage list.
func (p Pipeline) HasStage(name string) bool {
	for _, s := range p.stages {
		if s == name {
			return true
		}
	}
	return false
}

// DealsByStage groups deals by stage, each group ordered by position
// ascending with ties broken by creation time then id. The grouping is
// deterministic: equal inputs produce byte-equal output.
func (p Pipeline) DealsByStage() map[string][]crm.Deal {
	grouped := make(map[string][]crm.Deal, len(p.stages))
	for _, stage := range p.stages {
		grouped[stage] = nil
	}
	for _, deal := range p.deals {
		if _, ok := grouped[deal.Stage]; !ok {
			continue
		}
		grouped[deal.Stage] = append(grouped[deal.Stage], deal)
	}
	for stage, deals := range grouped {
		sorted := append([]crm.Deal(nil), deals...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Position != sorted[j].Position {
				return sorted[i].Position < sorted[j].Position
			}
			if sorted[i].CreatedAt != sorted[j].CreatedAt {
				return sorted[i].CreatedAt < sorted[j].CreatedAt
			}
			return sorted[i].ID < sorted[j].ID
		})
		grouped[stage] = sorted
	}
	return grouped
}

// StageDeals returns the ordered deals for a single stage.
func (p Pipeline) StageDeals(stage string) []crm.Deal {
	return p.DealsByStage()[stage]
}

// Summary recomputes the aggregate view. Never cached: a summary is a pure
// projection of the current deals and stages, so it cannot drift.
func (p Pipeline) Summary() crm.Summary {
	return crm.Summarize(p.stages, p.deals)
}

// TailPosition returns a position value that sorts after every deal
// currently in the stage.
func (p Pipeline) TailPosition(stage string) int {
	max := -1
	for _, deal := range p.deals {
		if deal.Stage == stage && deal.Position > max {
			max = deal.Position
		}
	}
	return max + 1
}

// Apply produces the Pipeline that results from one patch. The receiver is
// never modified.
func (p Pipeline) Apply(patch Patch) Pipeline {
	if patch == nil {
		return p
	}
	return patch.apply(p)
}
