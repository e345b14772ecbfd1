package domain

// Business rules for deal records.
//
//   - Titles are required.
//   - Monetary value is never negative.
//   - A deal's stage must be a member of the current pipeline.

// ValidateDealFields checks the writable fields of a deal against the rules
// above. stages is the current pipeline stage list.
func ValidateDealFields(title string, value float64, stage string, priority Priority, stages []string) error {
	if title == "" {
		return invalidDealError("deal title is required")
	}
	if value < 0 {
		return invalidDealError("deal value cannot be negative")
	}
	if err := priority.Validate(); err != nil {
		return err
	}
	if !ContainsStage(stages, stage) {
		return unknownStageError(stage)
	}
	return nil
}
