// Package lanes provides an in-process, priority-ordered job queue with
// persistence-backed crash recovery.
//
// Producers submit typed jobs with a priority, an optional delay, a retry
// budget, dependencies on other jobs and free-form tags. Workers register
// with the job types they accept and a concurrency bound; each worker runs a
// dispatch loop that claims eligible jobs and runs the registered handler
// under a timeout. Failed jobs are retried with exponential backoff and land
// in a bounded dead-letter queue once their budget is spent.
//
// # Quick Start
//
//	m, err := engine.New(memory.New(),
//	    engine.WithConfig(lanes.DefaultConfig()),
//	    engine.WithLogger(logger),
//	)
//	engine.Register(m, sendEmail)
//	m.RegisterWorker("mailer", []string{"email.send"}, 4)
//	m.Start(ctx)
//	defer m.Shutdown(30 * time.Second)
//
//	jobID, err := engine.Enqueue(ctx, m, sendEmail, EmailInput{To: "a@b.c"},
//	    job.WithPriority(job.PriorityHigh),
//	)
//
// # Architecture
//
// The root package holds configuration, sentinel errors and the metrics
// snapshot type. The engine package owns the in-memory index, the priority
// lanes (package lane), the dead-letter queue (package dlq) and the worker
// registry; persistence is reached only through the job.Store interface,
// implemented by the backends under store/.
//
// All entity IDs are prefixed, K-sortable, UUIDv7-based identifiers (see
// package id).
package lanes
