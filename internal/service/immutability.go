package service

import (
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// Lockable is implemented by records that can reach a terminal, read-only state.
type Lockable interface {
	ImmutableReason() (string, bool)
}

// ensureMutable is the single guard consulted by every mutating entry point before any write.
func ensureMutable(record Lockable) error {
	if record == nil {
		return nil
	}
	if reason, locked := record.ImmutableReason(); locked {
		return appErrors.Clone(appErrors.ErrForbidden, reason)
	}
	return nil
}
