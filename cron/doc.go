// Package cron enqueues jobs on recurring schedules.
//
// A [Scheduler] holds named entries in memory and, on every tick, submits
// a job for each entry whose next run time has passed. Schedules use the
// standard five-field cron syntax or descriptors such as "@hourly" and
// "@every 30s".
//
//	s := cron.NewScheduler(m)
//	_ = s.Add("nightly-report", "0 2 * * *", "report.build", []byte(`{}`))
//	go s.Run(ctx)
//
// Runs missed while the scheduler was stopped or behind are coalesced
// into a single submission. Entries are not persisted; register them at
// start-up.
package cron
