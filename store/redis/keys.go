package redis

// Redis key naming conventions. All keys are prefixed with "lanes:" to
// avoid collisions.

const keyPrefix = "lanes:"

// jobKey returns the Hash key for a job: lanes:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// statusKeyPrefix prefixes the per-status Sorted Sets.
const statusKeyPrefix = keyPrefix + "status:"

// statusKey returns the Sorted Set indexing jobs in a status:
// lanes:status:{status}
func statusKey(status string) string { return statusKeyPrefix + status }
