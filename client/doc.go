// Package client is a Go client for the lanes admin HTTP API.
//
// Usage:
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithToken("s3cret"),
//	)
//
//	jobID, err := c.Enqueue(ctx, "email.send", payload,
//	    client.WithPriority(job.PriorityHigh),
//	)
//	j, err := c.GetJob(ctx, jobID)
//
// Idempotent requests (GET and DELETE) are retried on transport errors and
// 502/503/504 responses with the configured backoff.
package client
