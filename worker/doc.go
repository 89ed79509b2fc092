// Package worker provides the worker record, the [Executor] that runs a
// job's handler through middleware, and the per-worker dispatch [Loop].
//
// A [Worker] is plain data owned by the queue manager: its active job set,
// heartbeat and processing statistics are mutated only under the manager's
// lock. The [Loop] drives one worker: on every tick it heartbeats, then
// claims jobs from its [Source] until the worker's concurrency is filled,
// running each claimed job on its own goroutine and reporting the outcome
// back through [Source.Finish].
//
// Ticks come from a ticker and from [Loop.Wake], which the manager calls
// when a job is submitted, requeued or released, so idle workers sleep
// instead of polling in a tight loop.
package worker
