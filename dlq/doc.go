// Package dlq provides the bounded dead-letter queue for jobs that have
// exhausted their retry budget.
//
// When the failure that pushes a job's RetryCount past MaxRetries occurs,
// the manager marks the job dead and calls [Queue.Push]. The queue keeps
// the most recent entries up to its capacity; pushing into a full queue
// evicts and returns the oldest entry so the caller can release it.
//
// # Entry
//
// An [Entry] captures:
//   - Job: a snapshot of the dead job (payload, tags, retry counts)
//   - Error: the final handler error
//   - FailedAt: when the terminal failure occurred
//
// # Requeue
//
// Requeueing a dead job goes through the manager (engine.RetryDeadJob),
// which removes the entry with [Queue.Remove] and resets the job to
// pending with a fresh retry budget.
//
// # Admin API
//
// The queue is exposed via the HTTP admin API:
//   - GET  /v1/dlq                 list entries
//   - POST /v1/dlq/{jobID}/retry   requeue one job
package dlq
