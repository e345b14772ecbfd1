package mutate

import (
	"time"

	"dealboard/internal/crm"
)

// DebounceKey scopes coalescing to one field of one deal. Edits to different
// fields, or to the same field of different deals, never coalesce.
type DebounceKey struct {
	EntityID string
	Field    string
}

type debounceEntry struct {
	gen uint64
	req crm.UpdateDealRequest
}

// Debouncer coalesces rapid inline edits into a single remote write per
// field. Every edit still patches the store immediately; only the remote
// call is held back. Each Touch bumps the key's generation so that a timer
// armed by an earlier touch flushes nothing.
type Debouncer struct {
	window  time.Duration
	entries map[DebounceKey]*debounceEntry
}

// NewDebouncer builds a debouncer with the given coalescing window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		entries: make(map[DebounceKey]*debounceEntry),
	}
}

// Window returns the coalescing window, for arming flush timers.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Touch records an edit and returns the generation the caller should arm a
// flush timer with. Later edits to the same key overlay earlier ones, so the
// eventual flush carries the final value of every touched field.
func (d *Debouncer) Touch(key DebounceKey, req crm.UpdateDealRequest) uint64 {
	entry := d.entries[key]
	if entry == nil {
		entry = &debounceEntry{}
		d.entries[key] = entry
	}
	entry.gen++
	entry.req = mergeRequests(entry.req, req)
	return entry.gen
}

// Flush takes the coalesced request for key if gen is still current. A stale
// generation means a later Touch re-armed the timer; the caller drops the
// flush and waits for the newer one.
func (d *Debouncer) Flush(key DebounceKey, gen uint64) (crm.UpdateDealRequest, bool) {
	entry := d.entries[key]
	if entry == nil || entry.gen != gen {
		return crm.UpdateDealRequest{}, false
	}
	delete(d.entries, key)
	return entry.req, true
}

// FlushAll drains every pending edit regardless of generation. Used when the
// user leaves an editing context and everything outstanding must ship now.
func (d *Debouncer) FlushAll() map[DebounceKey]crm.UpdateDealRequest {
	if len(d.entries) == 0 {
		return nil
	}
	drained := make(map[DebounceKey]crm.UpdateDealRequest, len(d.entries))
	for key, entry := range d.entries {
		drained[key] = entry.req
	}
	d.entries = make(map[DebounceKey]*debounceEntry)
	return drained
}

// Discard drops any pending edit for key without shipping it.
func (d *Debouncer) Discard(key DebounceKey) {
	delete(d.entries, key)
}

// Pending reports how many keys have unflushed edits.
func (d *Debouncer) Pending() int {
	return len(d.entries)
}

func mergeRequests(base, overlay crm.UpdateDealRequest) crm.UpdateDealRequest {
	if overlay.Title != nil {
		base.Title = overlay.Title
	}
	if overlay.Value != nil {
		base.Value = overlay.Value
	}
	if overlay.ContactID != nil {
		base.ContactID = overlay.ContactID
	}
	if overlay.ContactName != nil {
		base.ContactName = overlay.ContactName
	}
	if overlay.Description != nil {
		base.Description = overlay.Description
	}
	if overlay.Priority != nil {
		base.Priority = overlay.Priority
	}
	if overlay.ExpectedCloseDate != nil {
		base.ExpectedCloseDate = overlay.ExpectedCloseDate
	}
	if overlay.Tags != nil {
		base.Tags = append([]string(nil), overlay.Tags...)
	}
	if overlay.CustomFields != nil {
		base.CustomFields = overlay.CustomFields
	}
	if overlay.LostReason != nil {
		base.LostReason = overlay.LostReason
	}
	if overlay.Position != nil {
		base.Position = overlay.Position
	}
	return base
}
