// Package workerpool runs independent tasks with a concurrency bound and a
// time budget.
//
// Every sync phase that fans out work (stat upserts, nickname lookups, rank
// recomputation) goes through Pool.Run. A failing task never aborts its
// siblings; the Result reports completed, failed and skipped counts so the
// caller can treat a timed-out phase as partial completion.
//
// ResolveThreadCount turns the configured worker count into a pool size:
// zero means every CPU, a negative value leaves that many CPUs free, and
// values above the CPU count are clamped.
package workerpool
