// Package job defines the job entity, its state machine, priorities, typed
// definitions, the handler registry and the persistence boundary.
//
// # Job Entity
//
// A [Job] is a unit of work with a type name, a priority, a JSON payload,
// optional dependencies on other jobs and free-form tags. It progresses
// through a state machine:
//
//	pending → processing → completed
//	pending → processing → retrying → pending → ...
//	pending → processing → dead → (requeue) pending
//	processing → pending                    (reclaimed or recovered)
//
// Fields of note:
//   - Priority: lower values are dequeued first (critical … background)
//   - MaxRetries / RetryCount: the retry budget; the failure that pushes
//     RetryCount past MaxRetries makes the job dead
//   - ScheduledAt: earliest time the job may be dequeued
//   - Dependencies: jobs that must be completed first
//   - Version: bumped on every mutation so stores can discard stale writes
//
// # Defining a Job
//
// Use [Definition] with a typed handler. The payload is JSON-serialized
// at enqueue time and deserialized before the handler runs:
//
//	var SendEmail = job.NewDefinition("email.send",
//	    func(ctx context.Context, input EmailInput) error {
//	        return mailer.Send(input.To, input.Subject, input.Body)
//	    },
//	)
//
// # Registry
//
// [Registry] maps job types to type-erased [HandlerFunc] values.
// Registering a type twice replaces the earlier handler.
//
// The engine package provides higher-level engine.Register and
// engine.Enqueue wrappers.
package job
