package lanes

import "errors"

var (
	// Submission errors.
	ErrEmptyJobType       = errors.New("lanes: job type is required")
	ErrNoHandler          = errors.New("lanes: no handler registered for job type")
	ErrInvalidPriority    = errors.New("lanes: invalid priority")
	ErrInvalidOption      = errors.New("lanes: invalid job option")
	ErrDependencyNotFound = errors.New("lanes: dependency not found")
	ErrShuttingDown       = errors.New("lanes: manager is shutting down")

	// Worker errors.
	ErrInvalidWorker  = errors.New("lanes: invalid worker registration")
	ErrWorkerNotFound = errors.New("lanes: worker not found")

	// Lookup errors.
	ErrJobNotFound = errors.New("lanes: job not found")

	// Execution errors.
	ErrJobTimeout   = errors.New("lanes: job timed out")
	ErrHandlerPanic = errors.New("lanes: handler panicked")

	// State errors.
	ErrInvalidTransition = errors.New("lanes: invalid state transition")
	ErrNotDead           = errors.New("lanes: job is not dead")

	// Lifecycle errors.
	ErrAlreadyStarted = errors.New("lanes: manager already started")
	ErrDrainTimeout   = errors.New("lanes: shutdown grace period elapsed with jobs in flight")
	ErrInvalidConfig  = errors.New("lanes: invalid config")

	// Store errors.
	ErrStoreClosed = errors.New("lanes: store closed")
)
