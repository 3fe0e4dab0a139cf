package app

import (
	"time"

	"github.com/richardsondev/unreal-archive/internal/ua"
)

// OperationIDFormat is the layout of operation IDs. Every log line written
// during one CLI invocation carries the same ID.
const OperationIDFormat = "20060102T150405Z"

// Operation tracks a single CLI invocation.
type Operation struct {
	ID      string
	Command string
	Started time.Time
	Status  string // "success" or "error"
}

// NewOperation creates an operation for command, started at clock.Now().
func NewOperation(command string, clock ua.Clock) *Operation {
	now := clock.Now().UTC()
	return &Operation{
		ID:      now.Format(OperationIDFormat),
		Command: command,
		Started: now,
		Status:  "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() { op.Status = "error" }

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(clock ua.Clock) time.Duration {
	return clock.Now().Sub(op.Started)
}
