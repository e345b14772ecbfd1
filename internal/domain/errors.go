package domain

import (
	"fmt"

	appErrors "dealboard/internal/errors"
)

func invalidPriorityError(priority string) error {
	return appErrors.New(appErrors.CodeInvalidPriority, fmt.Sprintf("invalid priority: %s", priority), nil)
}

func invalidDealError(reason string) error {
	return appErrors.New(appErrors.CodeInvalidDealData, reason, nil)
}

func unknownStageError(stage string) error {
	return appErrors.New(appErrors.CodeUnknownStage, fmt.Sprintf("unknown stage: %s", stage), nil)
}
