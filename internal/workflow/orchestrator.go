package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ApprovalDriver executes the domain activities of the approval process. The
// agent-backed implementation lives elsewhere; the orchestrator only
// sequences, retries, and records.
type ApprovalDriver interface {
	// StartApproval opens the approval request on the utility portal and
	// returns the protocol id assigned to it.
	StartApproval(ctx context.Context, req ApprovalRequest) (string, error)
	// SubmitDocuments uploads the request's documents under the protocol.
	SubmitDocuments(ctx context.Context, req ApprovalRequest, protocolID string) error
	// CheckStatus reads the current approval status for the protocol.
	CheckStatus(ctx context.Context, req ApprovalRequest, protocolID string) (string, error)
}

// Notifier delivers operator notifications about workflow progress.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// Orchestrator runs one approval workflow to completion: each activity under
// the retry policy, every transition recorded in the step log. A start
// failure short-circuits the run; later activities never execute without a
// protocol id.
type Orchestrator struct {
	policy   *RetryPolicy
	driver   ApprovalDriver
	notifier Notifier // nil disables notifications
	logger   *zap.Logger
}

func NewOrchestrator(policy *RetryPolicy, driver ApprovalDriver, notifier Notifier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		policy:   policy,
		driver:   driver,
		notifier: notifier,
		logger:   logger.Named("workflow"),
	}
}

// Run executes the approval workflow. The returned Result carries the step
// log even when the run fails partway.
func (o *Orchestrator) Run(ctx context.Context, workflowID string, req ApprovalRequest) (*Result, error) {
	result := &Result{WorkflowID: workflowID}
	log := o.logger.With(zap.String("workflow_id", workflowID), zap.String("project_id", req.ProjectID))

	if err := req.Validate(); err != nil {
		return result, err
	}

	record := func(step string, status StepStatus, detail string) {
		result.Steps = append(result.Steps, StepRecord{
			Step:   step,
			Status: status,
			Detail: detail,
			At:     time.Now().UTC(),
		})
	}

	// activity wraps one named step: record start, run under the retry
	// policy, record the outcome.
	activity := func(step string, op func(ctx context.Context) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		record(step, StepStarted, "")
		log.Info("Activity started.", zap.String("step", step))

		if err := o.policy.Run(ctx, step, op); err != nil {
			record(step, StepFailed, err.Error())
			log.Error("Activity failed.", zap.String("step", step), zap.Error(err))
			return err
		}
		record(step, StepCompleted, "")
		log.Info("Activity completed.", zap.String("step", step))
		return nil
	}

	var protocolID string
	err := activity("start_approval", func(ctx context.Context) error {
		id, err := o.driver.StartApproval(ctx, req)
		if err != nil {
			return err
		}
		protocolID = id
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("approval start failed: %w", err)
	}
	result.ProtocolID = protocolID

	var status string
	err = activity("check_status", func(ctx context.Context) error {
		s, err := o.driver.CheckStatus(ctx, req, protocolID)
		if err != nil {
			return err
		}
		status = s
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("status check failed: %w", err)
	}
	result.Status = status

	if len(req.Documents) > 0 {
		err = activity("submit_documents", func(ctx context.Context) error {
			return o.driver.SubmitDocuments(ctx, req, protocolID)
		})
		if err != nil {
			return result, fmt.Errorf("document submission failed: %w", err)
		}
	}

	if o.notifier != nil {
		subject := fmt.Sprintf("Approval %s: %s", req.ProjectID, status)
		body := fmt.Sprintf("Workflow %s finished with protocol %s and status %q.", workflowID, protocolID, status)
		if err := o.notifier.Notify(ctx, subject, body); err != nil {
			// Notification failures never fail the workflow.
			log.Warn("Notification delivery failed.", zap.Error(err))
		}
	}

	return result, nil
}
