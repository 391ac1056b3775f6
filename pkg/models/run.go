package models

import "time"

type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	// RunStatusNoResult marks an invoice fetch that produced nothing. The
	// invoice pipeline does not report why.
	RunStatusNoResult RunStatus = "no_result"
)

// FetchRun records the outcome of one fetch invocation
type FetchRun struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	StartedAt   time.Time  `json:"startedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	RecordCount int        `json:"recordCount"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
}
