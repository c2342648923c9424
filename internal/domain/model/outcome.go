package model

import (
	"encoding/json"
	"time"
)

type Decision string

const (
	DecisionDelete        Decision = "delete"
	DecisionKeepProtected Decision = "keep_protected"
	DecisionKeepRecent    Decision = "keep_recent"
)

type Status string

const (
	StatusKept      Status = "kept"
	StatusSimulated Status = "simulated"
	StatusDeleted   Status = "deleted"
	StatusFailed    Status = "failed"
)

// Outcome is the result of evaluating one post.
type Outcome struct {
	PostID    int64
	CreatedAt time.Time
	Text      string
	Decision  Decision
	Status    Status
	Error     string
}

// AuditRecord is the machine-readable line written for every evaluated post.
type AuditRecord struct {
	PostID    int64
	CreatedAt time.Time
	Protected bool
	Decision  Decision
	DryRun    bool
	Payload   json.RawMessage
}

type RunSummary struct {
	RunID      string
	Account    string
	DryRun     bool
	Cutoff     time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Evaluated  int
	Kept       int
	Simulated  int
	Deleted    int
	Failed     int
	FetchErr   error
}

// Count folds an outcome into the summary counters.
func (s *RunSummary) Count(o Outcome) {
	s.Evaluated++
	switch o.Status {
	case StatusKept:
		s.Kept++
	case StatusSimulated:
		s.Simulated++
	case StatusDeleted:
		s.Deleted++
	case StatusFailed:
		s.Failed++
	}
}
