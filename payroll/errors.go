package payroll

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected means no QBO connection exists for the tenant.
	ErrNotConnected = errors.New("quickbooks is not connected")

	// ErrTokenRevoked means the stored credentials were rejected or the
	// connection was disconnected; the tenant must re-authorize.
	ErrTokenRevoked = errors.New("quickbooks connection revoked, re-authorization required")
)

// MappingError signals a missing mandatory identity mapping. It requires an
// administrator to act and is never retried automatically.
type MappingError struct {
	Entity     string
	InternalID int32
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("no QuickBooks %s mapping for internal id %d", e.Entity, e.InternalID)
}
