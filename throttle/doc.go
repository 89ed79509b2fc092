// Package throttle provides per-job-type admission control: token-bucket
// rate limits and caps on how many jobs of one type run at once across
// all workers of a manager.
//
// The manager consults [Manager.Acquire] as the last step of its dequeue
// predicate, so a job that is otherwise eligible stays in its lane while
// its type is saturated, and lower-priority jobs of other types may pass
// it. Every successful Acquire is paired with a [Manager.Release] when the
// job leaves the processing state.
//
//	t := throttle.NewManager(
//	    throttle.Config{Type: "email.send", RateLimit: 10, RateBurst: 5},
//	    throttle.Config{Type: "report.build", MaxConcurrency: 2},
//	)
//
// Types with no configuration are never throttled.
package throttle
