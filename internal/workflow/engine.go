package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobState is the lifecycle state of a submitted workflow.
type JobState string

const (
	StateQueued    JobState = "queued"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCanceled  JobState = "canceled"
)

// JobStatus is the externally visible state of one submitted workflow.
type JobStatus struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	State       JobState  `json:"state"`
	Reason      string    `json:"reason,omitempty"` // cancellation reason or failure message
	Result      *Result   `json:"result,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Engine accepts approval workflows and tracks them to completion.
type Engine interface {
	// Submit starts the workflow and returns its id without waiting.
	Submit(ctx context.Context, req ApprovalRequest) (string, error)
	// Status reports the current state of a submitted workflow.
	Status(ctx context.Context, id string) (*JobStatus, error)
	// Cancel stops a running workflow, recording the reason.
	Cancel(ctx context.Context, id, reason string) error
}

// Recorder persists job transitions and step logs. Implementations must
// tolerate being called from the engine's worker goroutines.
type Recorder interface {
	CreateJob(ctx context.Context, status JobStatus, req ApprovalRequest) error
	UpdateJob(ctx context.Context, status JobStatus) error
	AppendSteps(ctx context.Context, id string, steps []StepRecord) error
}

// InProcessEngine runs workflows in goroutines of the current process. Each
// job gets its own cancelable context bounded by the configured maximum
// duration; persistence through the Recorder is best effort.
type InProcessEngine struct {
	orch        *Orchestrator
	maxDuration time.Duration
	recorder    Recorder // nil disables persistence
	logger      *zap.Logger

	mu   sync.Mutex
	jobs map[string]*job
	wg   sync.WaitGroup
}

type job struct {
	status JobStatus
	cancel context.CancelFunc
	reason string
	done   chan struct{}
}

func NewInProcessEngine(orch *Orchestrator, maxDuration time.Duration, recorder Recorder, logger *zap.Logger) *InProcessEngine {
	if maxDuration <= 0 {
		maxDuration = 24 * time.Hour
	}
	return &InProcessEngine{
		orch:        orch,
		maxDuration: maxDuration,
		recorder:    recorder,
		logger:      logger.Named("engine"),
		jobs:        make(map[string]*job),
	}
}

// Submit registers the workflow and starts it in the background. The job
// outlives the submission context; only Cancel or the duration bound stops it.
func (e *InProcessEngine) Submit(ctx context.Context, req ApprovalRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	id := NewWorkflowID(req.ProjectID, now)

	runCtx, cancel := context.WithTimeout(context.Background(), e.maxDuration)
	j := &job{
		status: JobStatus{
			ID:          id,
			ProjectID:   req.ProjectID,
			State:       StateQueued,
			SubmittedAt: now,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	e.mu.Lock()
	if _, exists := e.jobs[id]; exists {
		e.mu.Unlock()
		cancel()
		return "", fmt.Errorf("workflow %s already exists", id)
	}
	e.jobs[id] = j
	e.mu.Unlock()

	e.record(ctx, func(rctx context.Context) error {
		return e.recorder.CreateJob(rctx, j.status, req)
	})

	e.wg.Add(1)
	go e.runJob(runCtx, j, req)

	e.logger.Info("Workflow submitted.",
		zap.String("workflow_id", id), zap.String("project_id", req.ProjectID))
	return id, nil
}

func (e *InProcessEngine) runJob(ctx context.Context, j *job, req ApprovalRequest) {
	defer e.wg.Done()
	defer j.cancel()
	defer close(j.done)

	e.setState(j, func(s *JobStatus) { s.State = StateRunning })

	result, err := e.orch.Run(ctx, j.status.ID, req)

	e.setState(j, func(s *JobStatus) {
		s.Result = result
		s.FinishedAt = time.Now().UTC()
		switch {
		case ctx.Err() != nil && j.reason != "":
			s.State = StateCanceled
			s.Reason = j.reason
		case err != nil:
			s.State = StateFailed
			s.Reason = err.Error()
		default:
			s.State = StateCompleted
		}
	})

	if result != nil && len(result.Steps) > 0 {
		e.record(context.Background(), func(rctx context.Context) error {
			return e.recorder.AppendSteps(rctx, j.status.ID, result.Steps)
		})
	}

	e.logger.Info("Workflow finished.",
		zap.String("workflow_id", j.status.ID),
		zap.String("state", string(e.snapshot(j).State)))
}

func (e *InProcessEngine) Status(_ context.Context, id string) (*JobStatus, error) {
	e.mu.Lock()
	j, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown workflow %s", id)
	}
	status := e.snapshot(j)
	return &status, nil
}

// Cancel requests cancellation of a running workflow. Finished workflows
// cannot be canceled.
func (e *InProcessEngine) Cancel(_ context.Context, id, reason string) error {
	e.mu.Lock()
	j, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown workflow %s", id)
	}

	e.mu.Lock()
	switch j.status.State {
	case StateCompleted, StateFailed, StateCanceled:
		e.mu.Unlock()
		return fmt.Errorf("workflow %s already finished (%s)", id, j.status.State)
	default:
	}
	j.reason = reason
	e.mu.Unlock()

	e.logger.Info("Canceling workflow.",
		zap.String("workflow_id", id), zap.String("reason", reason))
	j.cancel()
	return nil
}

// Await blocks until the workflow finishes or ctx is done.
func (e *InProcessEngine) Await(ctx context.Context, id string) (*JobStatus, error) {
	e.mu.Lock()
	j, ok := e.jobs[id]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown workflow %s", id)
	}

	select {
	case <-j.done:
		status := e.snapshot(j)
		return &status, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close waits for every running workflow to finish.
func (e *InProcessEngine) Close() {
	e.wg.Wait()
}

func (e *InProcessEngine) setState(j *job, mutate func(*JobStatus)) {
	e.mu.Lock()
	mutate(&j.status)
	status := j.status
	e.mu.Unlock()

	e.record(context.Background(), func(rctx context.Context) error {
		return e.recorder.UpdateJob(rctx, status)
	})
}

func (e *InProcessEngine) snapshot(j *job) JobStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return j.status
}

// record runs a persistence call when a recorder is configured, logging
// failures instead of propagating them.
func (e *InProcessEngine) record(ctx context.Context, op func(context.Context) error) {
	if e.recorder == nil {
		return
	}
	if err := op(ctx); err != nil {
		e.logger.Warn("Failed to persist workflow state.", zap.Error(err))
	}
}
