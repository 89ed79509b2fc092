package lanes

import "time"

// Metrics is a point-in-time summary of a queue manager.
type Metrics struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Retrying   int `json:"retrying"`
	Completed  int `json:"completed"`
	Dead       int `json:"dead"`

	// Failed counts failed handler attempts, including ones later retried.
	Failed int64 `json:"failed"`

	// Submitted counts accepted submissions since the manager was created.
	Submitted int64 `json:"submitted"`

	ActiveWorkers int `json:"active_workers"`

	// AvgWaitMs is the mean time between creation and first start.
	AvgWaitMs float64 `json:"avg_wait_ms"`

	// AvgProcessingMs is the mean handler duration of completed jobs.
	AvgProcessingMs float64 `json:"avg_processing_ms"`

	// Throughput is completions per second over the throughput window.
	Throughput float64 `json:"throughput"`

	// ErrorRate is failed attempts / (completions + failed attempts).
	ErrorRate float64 `json:"error_rate"`

	ComputedAt time.Time `json:"computed_at"`
}
