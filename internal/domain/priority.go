package domain

import "strings"

// Priority expresses how urgently a deal should be worked.
type Priority string

const (
	PriorityUnknown Priority = ""
	PriorityLow     Priority = "low"
	PriorityMedium  Priority = "medium"
	PriorityHigh    Priority = "high"
)

var validPriorities = map[Priority]struct{}{
	PriorityLow:    {},
	PriorityMedium: {},
	PriorityHigh:   {},
}

// ParsePriority normalises and validates an incoming priority string.
// A blank value falls back to medium, matching server-side defaults.
func ParsePriority(raw string) (Priority, error) {
	priority := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if priority == PriorityUnknown {
		return PriorityMedium, nil
	}
	if _, ok := validPriorities[priority]; !ok {
		return PriorityUnknown, invalidPriorityError(raw)
	}
	return priority, nil
}

// Validate ensures the priority is one of the supported levels.
func (p Priority) Validate() error {
	if _, ok := validPriorities[p]; !ok {
		return invalidPriorityError(string(p))
	}
	return nil
}

// Rank orders priorities for display, highest urgency first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}
