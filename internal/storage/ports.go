// Package storage persists the application state as a single snapshot
// document. Two adapters exist: a JSON file with atomic replace, and a
// single-row SQLite key/value table. Both are interchangeable behind the
// SnapshotStore port.
package storage

import (
	"context"

	"fintrack/internal/core"
)

// SnapshotKey is the well-known key under which the whole state lives.
const SnapshotKey = "fintrack_pro_data"

// SnapshotStore is the persistence capability required by the state
// store. Save receives the persist-safe form of the state; Load reports
// ok=false when no snapshot has been written yet.
type SnapshotStore interface {
	Load(ctx context.Context) (state core.AppState, ok bool, err error)
	Save(ctx context.Context, state core.AppState) error
	Close() error
}
