package tasks

import (
	"context"
	"strings"
)

// SyncDirection selects which way user data flows between Shoko and the local store.
//
// SyncDirectionSync keeps whichever side changed last. Unwatching an episode in
// Shoko only wins when the episode's Updated time moves past the local change.
type SyncDirection string

const (
	SyncDirectionImport SyncDirection = "Import"
	SyncDirectionExport SyncDirection = "Export"
	SyncDirectionSync   SyncDirection = "Sync"
)

// String returns the string representation of SyncDirection
func (d SyncDirection) String() string {
	return string(d)
}

// ParseSyncDirection parses a direction name, ignoring case
func ParseSyncDirection(s string) (SyncDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "import":
		return SyncDirectionImport, nil
	case "export":
		return SyncDirectionExport, nil
	case "sync", "both":
		return SyncDirectionSync, nil
	default:
		return "", &ErrInvalidDirection{Direction: s}
	}
}

// ErrInvalidDirection is returned when an invalid direction string is provided
type ErrInvalidDirection struct {
	Direction string
}

func (e *ErrInvalidDirection) Error() string {
	return "invalid sync direction: " + e.Direction
}

// SyncManager scans the library and synchronizes user data in one direction.
// Implementations are expected to stop when ctx is done.
type SyncManager interface {
	ScanAndSync(ctx context.Context, direction SyncDirection, progress Progress) error
}
