// Package mutate implements optimistic mutations over the board store. Each
// mutation applies its local effect immediately, captures enough state to
// undo itself, and ships the remote call off as a background command. When
// the call settles, the coordinator reconciles the server's canonical record
// or rolls the local effect back.
package mutate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"dealboard/internal/crm"
	"dealboard/internal/debug"
	"dealboard/internal/domain"
	"dealboard/internal/pipeline"
)

// StagesEntity is the sequence key for stage-list mutations. Stage edits
// race against each other, not against deal edits, so they get their own
// entity stream.
const StagesEntity = "pipeline-stages"

// placeholderPrefix marks locally minted deal ids awaiting a server id.
const placeholderPrefix = "tmp-"

// IsPlaceholderID reports whether id belongs to an optimistic create that
// has not settled yet. Such a deal cannot be updated, moved, or deleted; the
// server has never seen its id.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// Op identifies the kind of remote write a mutation performs.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpMove
	OpDelete
	OpStages
)

// FailureMessage is the toast shown when a mutation of this kind fails.
func (o Op) FailureMessage() string {
	switch o {
	case OpCreate:
		return "create failed"
	case OpUpdate:
		return "update failed"
	case OpMove:
		return "move failed"
	case OpDelete:
		return "delete failed"
	case OpStages:
		return "stage-list save failed"
	default:
		return "operation failed"
	}
}

// Notifier receives failure reports. The UI surfaces them as toasts.
type Notifier interface {
	MutationFailed(op Op, entityID string, err error)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(op Op, entityID string, err error)

func (f NotifierFunc) MutationFailed(op Op, entityID string, err error) {
	f(op, entityID, err)
}

// Pending is a dispatched mutation whose remote call has not settled yet.
// Execute runs the call off the event loop; the Settlement it returns must be
// fed back to Coordinator.Settle on the event loop.
type Pending struct {
	Op       Op
	EntityID string
	Seq      uint64

	execute func(context.Context) (pipeline.Patch, error)
}

// Execute performs the remote call. Safe to run in a goroutine.
func (p Pending) Execute(ctx context.Context) Settlement {
	patch, err := p.execute(ctx)
	return Settlement{Op: p.Op, EntityID: p.EntityID, Seq: p.Seq, Patch: patch, Err: err}
}

// Settlement is the outcome of one remote call.
type Settlement struct {
	Op       Op
	EntityID string
	Seq      uint64
	Patch    pipeline.Patch
	Err      error
}

// Outcome reports how the coordinator handled a settlement.
type Outcome int

const (
	// OutcomeApplied means the canonical server state was merged in.
	OutcomeApplied Outcome = iota
	// OutcomeStale means a newer mutation for the same entity already
	// settled, so this response was discarded without touching the store.
	OutcomeStale
	// OutcomeSuperseded means the call succeeded but a newer mutation for
	// the same entity is in flight; its settlement will carry fresher
	// canonical state, so this one's merge was skipped.
	OutcomeSuperseded
	// OutcomeRolledBack means the call failed and the local effect was
	// undone.
	OutcomeRolledBack
	// OutcomeFailedSuperseded means the call failed but newer local edits
	// exist on the entity; the failure was reported without rolling back.
	OutcomeFailedSuperseded
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the timestamp source for placeholder records.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// Coordinator sequences optimistic mutations against the store. All methods
// run on the program's event loop; only Pending.Execute leaves it.
type Coordinator struct {
	store    *pipeline.Store
	client   crm.Client
	notifier Notifier
	now      func() time.Time

	dispatched map[string]uint64
	settled    map[string]uint64
	rollbacks  map[string]map[uint64]pipeline.Patch
	editBase   map[string]crm.Deal
	inFlight   int
}

// NewCoordinator wires a coordinator over the given store and client.
func NewCoordinator(store *pipeline.Store, client crm.Client, notifier Notifier, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      store,
		client:     client,
		notifier:   notifier,
		now:        time.Now,
		dispatched: make(map[string]uint64),
		settled:    make(map[string]uint64),
		rollbacks:  make(map[string]map[uint64]pipeline.Patch),
		editBase:   make(map[string]crm.Deal),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InFlight reports how many dispatched mutations have not settled. The UI
// holds off background refreshes while this is non-zero.
func (c *Coordinator) InFlight() int {
	return c.inFlight
}

// CreateDeal optimistically inserts a placeholder deal and returns its
// temporary id alongside the pending remote call. The placeholder id is
// replaced by the server-assigned one when the call settles.
func (c *Coordinator) CreateDeal(req crm.CreateDealRequest) (Pending, string) {
	tempID := placeholderPrefix + uuid.NewString()
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		priority = domain.PriorityMedium
	}
	stamp := c.now().UTC().Format(time.RFC3339)
	placeholder := crm.Deal{
		ID:                tempID,
		Title:             req.Title,
		Value:             req.Value,
		Stage:             req.Stage,
		ContactID:         req.ContactID,
		ContactName:       req.ContactName,
		Description:       req.Description,
		Priority:          string(priority),
		ExpectedCloseDate: req.ExpectedCloseDate,
		Tags:              append([]string(nil), req.Tags...),
		Position:          req.Position,
		CreatedAt:         stamp,
		UpdatedAt:         stamp,
	}

	pending := c.dispatch(OpCreate, tempID,
		pipeline.DealAdded{Deal: placeholder},
		pipeline.DealRemoved{ID: tempID},
		func(ctx context.Context) (pipeline.Patch, error) {
			deal, err := c.client.CreateDeal(ctx, req)
			if err != nil {
				return nil, err
			}
			return pipeline.DealReconciled{OptimisticID: tempID, Deal: deal}, nil
		})
	return pending, tempID
}

// EditDeal applies a local field edit whose remote write is deferred.
// Debounced editing routes every keystroke here and ships one UpdateDeal
// once the burst settles. The first edit on an entity captures the record
// that write rolls back to. Advancing the sequence makes any in-flight
// mutation for the entity superseded, so its settlement cannot merge a
// canonical record over keystrokes the server never saw.
func (c *Coordinator) EditDeal(id string, req crm.UpdateDealRequest) {
	if _, ok := c.editBase[id]; !ok {
		if before, found := c.store.Current().DealByID(id); found {
			c.editBase[id] = before
		}
	}
	c.dispatched[id]++
	c.store.Apply(pipeline.DealChanged{ID: id, Request: req})
}

// UpdateDeal optimistically overlays a partial update. When the update ships
// edits already applied through EditDeal, the rollback target is the record
// captured before the first keystroke, not the current board state.
func (c *Coordinator) UpdateDeal(id string, req crm.UpdateDealRequest) Pending {
	before, ok := c.editBase[id]
	if !ok {
		before, _ = c.store.Current().DealByID(id)
	}
	delete(c.editBase, id)
	return c.dispatch(OpUpdate, id,
		pipeline.DealChanged{ID: id, Request: req},
		pipeline.DealReconciled{OptimisticID: id, Deal: before},
		func(ctx context.Context) (pipeline.Patch, error) {
			deal, err := c.client.UpdateDeal(ctx, id, req)
			if err != nil {
				return nil, err
			}
			return pipeline.DealReconciled{OptimisticID: id, Deal: deal}, nil
		})
}

// MoveDeal optimistically reassigns a deal's stage and position.
func (c *Coordinator) MoveDeal(id, stage string, position int) Pending {
	before, _ := c.store.Current().DealByID(id)
	return c.dispatch(OpMove, id,
		pipeline.DealMoved{ID: id, Stage: stage, Position: position},
		pipeline.DealMoved{ID: id, Stage: before.Stage, Position: before.Position},
		func(ctx context.Context) (pipeline.Patch, error) {
			deal, err := c.client.MoveDeal(ctx, id, stage, position)
			if err != nil {
				return nil, err
			}
			return pipeline.DealReconciled{OptimisticID: id, Deal: deal}, nil
		})
}

// DeleteDeal optimistically removes a deal. On failure the full record is
// restored, position included.
func (c *Coordinator) DeleteDeal(id string) Pending {
	before, _ := c.store.Current().DealByID(id)
	return c.dispatch(OpDelete, id,
		pipeline.DealRemoved{ID: id},
		pipeline.DealAdded{Deal: before},
		func(ctx context.Context) (pipeline.Patch, error) {
			if err := c.client.DeleteDeal(ctx, id); err != nil {
				return nil, err
			}
			return nil, nil
		})
}

// ReplaceStages optimistically swaps in a new stage list.
func (c *Coordinator) ReplaceStages(stages []string) Pending {
	before := c.store.Current().Stages()
	replacement := append([]string(nil), stages...)
	return c.dispatch(OpStages, StagesEntity,
		pipeline.StagesReplaced{Stages: replacement},
		pipeline.StagesReplaced{Stages: before},
		func(ctx context.Context) (pipeline.Patch, error) {
			canonical, err := c.client.ReplaceStages(ctx, replacement)
			if err != nil {
				return nil, err
			}
			return pipeline.StagesReplaced{Stages: canonical}, nil
		})
}

func (c *Coordinator) dispatch(op Op, entityID string, optimistic, rollback pipeline.Patch, call func(context.Context) (pipeline.Patch, error)) Pending {
	c.dispatched[entityID]++
	seq := c.dispatched[entityID]

	c.store.Apply(optimistic)
	if c.rollbacks[entityID] == nil {
		c.rollbacks[entityID] = make(map[uint64]pipeline.Patch)
	}
	c.rollbacks[entityID][seq] = rollback
	c.inFlight++

	debug.Logf("mutate: dispatch op=%d entity=%s seq=%d", op, entityID, seq)
	return Pending{Op: op, EntityID: entityID, Seq: seq, execute: call}
}

// Settle folds one remote outcome back into the store. Must run on the event
// loop. Ordering per entity: a settlement older than the entity's high-water
// mark is discarded, success for a superseded mutation skips the merge, and
// failure of a superseded mutation is reported without rolling back newer
// local edits.
func (c *Coordinator) Settle(s Settlement) Outcome {
	c.inFlight--

	rollback := c.rollbacks[s.EntityID][s.Seq]
	delete(c.rollbacks[s.EntityID], s.Seq)

	if s.Seq <= c.settled[s.EntityID] {
		debug.Logf("mutate: stale settlement entity=%s seq=%d high=%d", s.EntityID, s.Seq, c.settled[s.EntityID])
		return OutcomeStale
	}
	c.settled[s.EntityID] = s.Seq

	superseded := s.Seq < c.dispatched[s.EntityID]

	if s.Err != nil {
		if c.notifier != nil {
			c.notifier.MutationFailed(s.Op, s.EntityID, s.Err)
		}
		if superseded {
			debug.Logf("mutate: failure on superseded entity=%s seq=%d, keeping newer edits", s.EntityID, s.Seq)
			return OutcomeFailedSuperseded
		}
		if rollback != nil {
			c.store.Apply(rollback)
		}
		return OutcomeRolledBack
	}

	if superseded {
		return OutcomeSuperseded
	}
	if s.Patch != nil {
		c.store.Apply(s.Patch)
	}
	return OutcomeApplied
}
