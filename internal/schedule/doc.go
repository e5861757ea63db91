// Package schedule defines the canonical event model and the merge layer
// that folds per-provider contributions into one date-keyed agenda.
//
// Merging is a pure transformation: given the same normalized events it
// always produces the same agenda, independent of provider ordering. The
// agenda is rebuilt from scratch each sync cycle; there is no incremental
// patching and no cross-provider deduplication, so every event stays
// attributed to the provider it came from.
package schedule
