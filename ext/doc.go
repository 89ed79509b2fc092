// Package ext defines the extension system for lanes.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, sending alerts, writing audit logs.
// Each lifecycle hook is a separate interface so extensions opt in only
// to the events they care about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	func (e *MyExtension) OnJobDead(ctx context.Context, j *job.Job, err error) error {
//	    log.Printf("job %s is dead: %v", j.ID, err)
//	    return nil
//	}
//
// # Job Lifecycle Hooks
//
//   - [JobEnqueued]: job was accepted into the queue
//   - [JobStarted]: a worker claimed the job
//   - [JobCompleted]: job finished successfully
//   - [JobFailed]: an attempt failed
//   - [JobRetrying]: job will be retried after a backoff
//   - [JobDead]: job exhausted its retries and entered the dead-letter queue
//   - [JobReclaimed]: job was taken back from a lost worker
//   - [JobRequeued]: a dead job was requeued
//
// # Worker Lifecycle Hooks
//
//   - [WorkerRegistered]: worker registered and dispatching
//   - [WorkerLost]: worker missed too many heartbeats
//
// # Other Hooks
//
//   - [MetricsComputed]: the periodic metrics snapshot was recomputed
//   - [Shutdown]: the manager is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface.
package ext
