// Package engine implements the queue manager: it owns the job index, the
// priority lanes, the dead-letter queue and the registered workers, and
// drives every job through its lifecycle.
//
// The engine package sits above all subsystem packages (job, worker, lane,
// dlq, ext, middleware) and below the application layer, so the root lanes
// package can stay free of imports back into them.
//
// # Building a Manager
//
//	m, err := engine.New(store,
//	    engine.WithConfig(cfg),
//	    engine.WithLogger(logger),
//	    engine.WithPrometheus(prometheus.DefaultRegisterer),
//	    engine.WithThrottle(throttle.Config{Type: "email.send", RateLimit: 10}),
//	)
//
// # Registering Work
//
//	sendEmail := job.NewDefinition("email.send", func(ctx context.Context, p Email) error {
//	    return deliver(ctx, p)
//	})
//	engine.Register(m, sendEmail)
//
// # Running
//
//	if err := m.Start(ctx); err != nil { ... }
//	workerID, err := m.RegisterWorker("mailer", []string{"email.send"}, 4)
//	jobID, err := engine.Enqueue(ctx, m, sendEmail, Email{To: "a@b.c"},
//	    job.WithPriority(job.PriorityHigh),
//	)
//	...
//	err = m.Shutdown(30 * time.Second)
//
// Every state transition is written to the job.Store before the owning
// worker is released. Writes are versioned, so a store applying them out
// of order never rolls a job back.
package engine
