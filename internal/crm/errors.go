package crm

import (
	"fmt"

	appErrors "dealboard/internal/errors"
)

func requestError(op string, err error) error {
	return appErrors.New(appErrors.CodeRequestFailed, fmt.Sprintf("%s failed", op), err)
}

func decodeError(op string, err error) error {
	return appErrors.New(appErrors.CodeDecodeFailed, fmt.Sprintf("decode %s response", op), err)
}

func notFoundError(kind, id string) error {
	return appErrors.New(appErrors.CodeNotFound, fmt.Sprintf("%s %s not found", kind, id), nil)
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return appErrors.IsCode(err, appErrors.CodeNotFound)
}
