// Package cache provides the fast-path rollover cache used by the today
// snapshot. The durable source of truth is the daily_balances table; this
// layer only shortcuts the read. A miss is not an error: callers fall back
// to storage and finally to a zero rollover.
package cache

import (
	"context"

	"perdiem/internal/core"
)

// RolloverCache resolves a user's ending rollover for a closed local day.
type RolloverCache interface {
	// Get returns the cached rollover for (userID, day). ok is false on a
	// miss; an error means the cache itself failed.
	Get(ctx context.Context, userID string, day core.LocalDay) (cents int64, ok bool, err error)

	// Set stores the rollover for (userID, day).
	Set(ctx context.Context, userID string, day core.LocalDay, cents int64) error
}

func key(userID string, day core.LocalDay) string {
	return "rollover:" + userID + ":" + day.String()
}
