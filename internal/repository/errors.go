package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrConflict         = errors.New("unique constraint violation")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr maps driver-level failures onto the repository taxonomy. Anything
// that is not a duplicate key or a missing record is treated as the store
// being unreachable (connection refused, pool exhausted, bad statement).
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
