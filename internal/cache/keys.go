package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// SyncLockKey guards a spreadsheet against concurrent sync runs.
func SyncLockKey(spreadsheetID string) string {
	return fmt.Sprintf("sync:lock:%s", spreadsheetID)
}

func RunStatusKey(runID uuid.UUID) string {
	return fmt.Sprintf("run:%s", runID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
