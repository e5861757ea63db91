// Package syncer runs the aggregation cycle that merges device and remote
// calendar events into a single agenda.
//
// Each cycle fans out one goroutine per signed-in remote provider plus the
// device branch, bounded by a shared timeout. Branches fail independently:
// an unreachable provider lands in Result.Failures while the rest of the
// cycle's events still build the Agenda. Providers without a session are
// skipped, not failed.
package syncer
