package domain

import "strings"

// Terminal stage names. Stages have no identity beyond their name, so the
// won/lost buckets are recognised by exact match.
const (
	StageWon  = "Won"
	StageLost = "Lost"
)

// MinStages is the smallest allowed pipeline; a board needs at least one
// working stage and one landing stage to mean anything.
const MinStages = 2

// DefaultStages mirrors the server's default pipeline configuration.
var DefaultStages = []string{
	"New Lead",
	"Qualified",
	"Proposal",
	"Negotiation",
	StageWon,
	StageLost,
}

// IsTerminalStage reports whether the stage name denotes a won or lost bucket.
func IsTerminalStage(name string) bool {
	return name == StageWon || name == StageLost
}

// IsLostStage reports whether the stage denotes the lost terminal bucket.
// Deals in this stage carry a lost reason.
func IsLostStage(name string) bool {
	return name == StageLost
}

// ContainsStage reports whether name is a member of the stage list.
// Matching is case-sensitive: "won" and "Won" are different stages.
func ContainsStage(stages []string, name string) bool {
	for _, s := range stages {
		if s == name {
			return true
		}
	}
	return false
}

// FirstWorkingStage returns the first non-terminal stage, used as the default
// landing stage for newly created deals. Falls back to the first stage when
// every stage is terminal.
func FirstWorkingStage(stages []string) string {
	for _, s := range stages {
		if !IsTerminalStage(s) {
			return s
		}
	}
	if len(stages) > 0 {
		return stages[0]
	}
	return ""
}

// ValidStageName reports whether a candidate stage name is usable after
// trimming. The trimmed form is returned for storage.
func ValidStageName(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	return trimmed, trimmed != ""
}
