// Package report writes run results to disk.
//
// Layout:
//   - report.json: run index with summary and one entry per flow
//   - flows/flow-XXX.json: per-flow step details
//   - assets/flow-XXX/: screenshots and page sources captured during the run
//   - report.html: self-contained HTML view of the above
//   - allure-results/: optional Allure result files
package report

import (
	"time"

	"github.com/devicelab-dev/wd-adapter/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status is the status of a flow or step as written to the report.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusWarned  Status = "warned"
	StatusFailed  Status = "failed"
	StatusErrored Status = "errored"
	StatusSkipped Status = "skipped"
)

// statusOf converts an executor status.
func statusOf(s core.StepStatus) Status {
	switch s {
	case core.StatusRunning:
		return StatusRunning
	case core.StatusPassed:
		return StatusPassed
	case core.StatusWarned:
		return StatusWarned
	case core.StatusFailed:
		return StatusFailed
	case core.StatusErrored:
		return StatusErrored
	case core.StatusSkipped:
		return StatusSkipped
	default:
		return StatusPending
	}
}

// IsFailure reports whether s counts as a failed flow or step.
func (s Status) IsFailure() bool {
	return s == StatusFailed || s == StatusErrored
}

// Index is report.json.
type Index struct {
	Version   string      `json:"version"`
	RunID     string      `json:"runId"`
	Name      string      `json:"name,omitempty"`
	Status    Status      `json:"status"`
	Browser   string      `json:"browser,omitempty"`
	StartTime time.Time   `json:"startTime"`
	EndTime   time.Time   `json:"endTime"`
	Duration  int64       `json:"duration"` // milliseconds
	Summary   Summary     `json:"summary"`
	Flows     []FlowEntry `json:"flows"`
}

// Summary counts flows by outcome.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// FlowEntry is a flow's line in the index.
type FlowEntry struct {
	Index      int       `json:"index"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceFile string    `json:"sourceFile,omitempty"`
	DataFile   string    `json:"dataFile"`
	Status     Status    `json:"status"`
	StartTime  time.Time `json:"startTime"`
	Duration   int64     `json:"duration"`
	Error      string    `json:"error,omitempty"`
	Message    string    `json:"message,omitempty"`
	Steps      StepCount `json:"steps"`
}

// StepCount counts a flow's steps by outcome.
type StepCount struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Warned  int `json:"warned"`
}

// FlowDetail is flows/flow-XXX.json.
type FlowDetail struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourceFile string    `json:"sourceFile,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	Status     Status    `json:"status"`
	StartTime  time.Time `json:"startTime"`
	Duration   int64     `json:"duration"`
	Error      string    `json:"error,omitempty"`
	Steps      []Step    `json:"steps"`
}

// Step is a single executed step.
type Step struct {
	Index      int         `json:"index"`
	Command    string      `json:"command"`
	Label      string      `json:"label,omitempty"`
	ExecutedBy string      `json:"executedBy,omitempty"`
	Optional   bool        `json:"optional,omitempty"`
	Status     Status      `json:"status"`
	StartTime  *time.Time  `json:"startTime,omitempty"`
	Duration   int64       `json:"duration"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      *Error      `json:"error,omitempty"`
	Artifacts  []Artifact  `json:"artifacts,omitempty"`
}

// Error describes a step failure.
type Error struct {
	Message  string `json:"message"`
	Category string `json:"category,omitempty"`
}

// Artifact is a file captured for a step, relative to the report directory.
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Path        string `json:"path"`
}
