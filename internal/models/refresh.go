package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
	TriggerCLI       = "cli"
)

// RefreshRun describes one completed refresh. It is stored in the history
// table and published on the refresh stream.
type RefreshRun struct {
	ID             uuid.UUID         `json:"id"`
	Source         SourceName        `json:"source"`
	Trigger        string            `json:"trigger"`
	ItemsRefreshed int               `json:"itemsRefreshed"`
	PerSource      map[string]int    `json:"perSource"`
	Errors         map[string]string `json:"errors,omitempty"`
	StartedAt      time.Time         `json:"startedAt"`
	FinishedAt     time.Time         `json:"finishedAt"`
}

func (r RefreshRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether every requested source produced records.
func (r RefreshRun) Succeeded() bool {
	return len(r.Errors) == 0
}

// AddError notes that source failed during the run.
func (r *RefreshRun) AddError(source SourceName, err error) {
	if r.Errors == nil {
		r.Errors = make(map[string]string)
	}
	r.Errors[string(source)] = err.Error()
}
