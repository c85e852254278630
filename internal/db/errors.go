package db

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable marks failures of the store itself, as opposed to
// domain outcomes like "not found" or "duplicate".
var ErrStoreUnavailable = errors.New("store unavailable")

// StoreError wraps err with op and ErrStoreUnavailable. A nil err stays nil.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
