// Package subscache holds the process-wide subscription snapshot that
// survives a router restart within the same process lifetime (§4.5). It
// mirrors the atomic.Pointer swap pattern used by internal/logging for the
// global logger: readers during a restart observe either the pre-restart or
// post-restart snapshot, never a partial one.
package subscache

import "sync/atomic"

// Snapshot is left untyped (any) so this package never needs to import the
// router package that owns the concrete subscription type; router.New type
// asserts the value back on Load.
var snapshot atomic.Pointer[any]

// Load returns the current snapshot, or nil if none has been stored yet
// (first router start in the process).
func Load() any {
	p := snapshot.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Store atomically replaces the snapshot. Callers pass the full
// subscription set, not a delta; the previous value is discarded.
func Store(v any) {
	snapshot.Store(&v)
}

// Clear resets the snapshot to empty, primarily for tests.
func Clear() {
	snapshot.Store(nil)
}
