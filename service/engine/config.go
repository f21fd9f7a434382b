package engine

import (
	"fmt"
	"time"
)

// Config represents engine configuration.
type Config struct {
	// WorkerCount is the number of workers advancing executions.
	WorkerCount int

	// DefaultStepTimeout bounds the wait for a step without an explicit
	// timeout. Zero disables the default bound.
	DefaultStepTimeout time.Duration

	// RetryDelay is the fixed backoff used when a step retry does not
	// specify one.
	RetryDelay time.Duration

	// RecentExecutions caps how many executions Get returns.
	RecentExecutions int

	// ApprovalTTL is the requested lifetime of queued approvals; the team
	// policy may clamp it.
	ApprovalTTL time.Duration
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount:        5,
		DefaultStepTimeout: 0,
		RetryDelay:         time.Second,
		RecentExecutions:   10,
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.WorkerCount <= 0 {
		return fmt.Errorf("engine: worker count must be positive, got %d", c.WorkerCount)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("engine: retry delay must not be negative")
	}
	return nil
}
