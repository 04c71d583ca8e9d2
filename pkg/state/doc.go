// Package state persists produced snapshots behind a small Store interface
// and replays mutations through the draft engine.
//
// Design notes:
//   - The core drafts package remains persistence-agnostic; all persistence
//     logic lives here behind Store.
//   - Mutate loads a snapshot, runs a recipe against a draft of it, and saves
//     the produced value. The forward patch log is returned to the caller,
//     not stored, so consumers can audit or replicate the change.
//   - Resolve layers stored overlays onto caller defaults using the engine's
//     structural-sharing merge.
//
// MemoryStore is the reference implementation, intended for tests and
// examples.
package state
