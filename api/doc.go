// Package api exposes a queue manager over HTTP for administration.
//
// Routes are mounted under /v1 on a chi router:
//
//	POST   /v1/jobs                 submit a job
//	GET    /v1/jobs                 list jobs (?status=, ?limit=, ?offset=)
//	GET    /v1/jobs/{jobID}         job status
//	POST   /v1/workers              register a worker
//	GET    /v1/workers              list workers
//	DELETE /v1/workers/{workerID}   deactivate a worker
//	GET    /v1/dlq                  list dead letters (?type=, ?limit=, ?offset=)
//	POST   /v1/dlq/{jobID}/retry    requeue a dead job
//	GET    /v1/metrics              metrics snapshot
//	POST   /v1/reap                 run one cleanup pass
//
// /healthz and the Prometheus /metrics endpoint sit outside /v1 and are
// never authenticated. When a token is configured every /v1 request must
// carry "Authorization: Bearer <token>".
package api
