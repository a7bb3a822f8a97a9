// Package workflow orchestrates long-running approval processes: retries
// with a declarative policy, a durable step log, and an engine that tracks
// and cancels running workflows.
package workflow

import (
	"fmt"
	"time"
)

// ApprovalRequest describes one solar-installation approval to push through a
// utility portal.
type ApprovalRequest struct {
	// ProjectID identifies the installation project.
	ProjectID string `json:"project_id"`
	// Utility is the utility code used to look up the portal in the directory.
	Utility string `json:"utility"`
	// Documents are the file paths to submit with the request.
	Documents []string `json:"documents,omitempty"`
}

// Validate rejects requests the workflow cannot even start.
func (r ApprovalRequest) Validate() error {
	if r.ProjectID == "" {
		return NewActivityError(KindValidation, fmt.Errorf("project_id is required"))
	}
	if r.Utility == "" {
		return NewActivityError(KindValidation, fmt.Errorf("utility is required"))
	}
	return nil
}

// StepStatus is the lifecycle state of one recorded workflow step.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepRecord is one entry of the workflow's durable step log.
type StepRecord struct {
	Step   string     `json:"step"`
	Status StepStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
	At     time.Time  `json:"at"`
}

// Result is the outcome of one completed workflow run.
type Result struct {
	WorkflowID string       `json:"workflow_id"`
	ProtocolID string       `json:"protocol_id,omitempty"`
	Status     string       `json:"status,omitempty"`
	Steps      []StepRecord `json:"steps"`
}

// NewWorkflowID derives the deterministic identifier for an approval run.
// Submitting the same project twice yields distinct ids because the
// submission time is part of it.
func NewWorkflowID(projectID string, now time.Time) string {
	return fmt.Sprintf("approval-%s-%d", projectID, now.Unix())
}
