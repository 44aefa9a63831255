// Package download provides the concurrent batch download engine.
//
// # Scheduler
//
// Scheduler fans a list of items out across a bounded worker pool
// (default 10 workers). Each item gets exactly one task: a track is
// transferred directly, while an album summary is expanded inside its
// own task and its tracks processed sequentially within that single
// worker slot. Item failures are collected into the batch Report and
// never abort sibling tasks; only destination-root creation failure is
// fatal to the run.
//
//	report, err := scheduler.Run(ctx, items, destRoot)
//	if err != nil {
//	    return err // batch setup failed
//	}
//	for _, f := range report.Failures() {
//	    fmt.Printf("%s: %v\n", f.Label, f.Err)
//	}
//
// # Transfer
//
// Transfer performs one payload download with bounded retry and an
// atomic temp-file to final-file publish:
//
//  1. Final path already exists: done, no network call.
//  2. Sample/preview descriptor: skipped, never retried.
//  3. Stream into a hidden ordinal temp file in fixed-size chunks.
//  4. Connection-level failures (timeout, reset, truncated body) are
//     retried up to the cap with a fixed backoff, restarting from byte
//     zero; other errors abort immediately.
//  5. Tag the temp file (best-effort) and atomically rename it to the
//     final path. No reader ever observes a partial file there.
//
// # Progress
//
// The Report tracks one monotonically-advancing counter, incremented
// exactly once per item as the task's last action, plus received byte
// totals. Progress callbacks receive human-readable Events with a
// severity level, following the style of the rest of the tool.
package download
