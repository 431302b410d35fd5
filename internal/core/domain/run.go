package domain

import "time"

// RunStatus is the outcome of a sync run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// SyncRun is the history entry of one extraction run.
type SyncRun struct {
	ID                string
	StartedAt         time.Time
	FinishedAt        time.Time
	Status            RunStatus
	Streams           []string
	Records           int
	SkippedPartitions int
	Error             string
}
