package workflow_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/solarops/bua/internal/workflow"
)

// blockingDriver parks StartApproval until released, letting tests observe
// and cancel a running workflow deterministically.
type blockingDriver struct {
	fakeDriver
	started chan struct{}
	release chan struct{}
}

func (d *blockingDriver) StartApproval(ctx context.Context, req workflow.ApprovalRequest) (string, error) {
	select {
	case d.started <- struct{}{}:
	default:
	}
	select {
	case <-d.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return d.fakeDriver.StartApproval(ctx, req)
}

// memoryRecorder captures persistence calls for assertions.
type memoryRecorder struct {
	mu      sync.Mutex
	created []workflow.JobStatus
	updated []workflow.JobStatus
	steps   map[string][]workflow.StepRecord
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{steps: make(map[string][]workflow.StepRecord)}
}

func (r *memoryRecorder) CreateJob(_ context.Context, status workflow.JobStatus, _ workflow.ApprovalRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, status)
	return nil
}

func (r *memoryRecorder) UpdateJob(_ context.Context, status workflow.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, status)
	return nil
}

func (r *memoryRecorder) AppendSteps(_ context.Context, id string, steps []workflow.StepRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[id] = append(r.steps[id], steps...)
	return nil
}

func newEngine(driver workflow.ApprovalDriver, recorder workflow.Recorder) *workflow.InProcessEngine {
	policy := workflow.NewRetryPolicy(fastRetryConfig(), zap.NewNop())
	orch := workflow.NewOrchestrator(policy, driver, nil, zap.NewNop())
	return workflow.NewInProcessEngine(orch, time.Minute, recorder, zap.NewNop())
}

func TestEngineRunsWorkflowToCompletion(t *testing.T) {
	defer goleak.VerifyNone(t)

	driver := &fakeDriver{protocolID: "PROT-1", status: "approved"}
	recorder := newMemoryRecorder()
	engine := newEngine(driver, recorder)
	defer engine.Close()

	id, err := engine.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Contains(t, id, "approval-proj-42-")

	status, err := engine.Await(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCompleted, status.State)
	require.NotNil(t, status.Result)
	assert.Equal(t, "PROT-1", status.Result.ProtocolID)
	assert.False(t, status.FinishedAt.IsZero())

	// Persistence saw the job creation and the final step log.
	require.Len(t, recorder.created, 1)
	assert.Equal(t, workflow.StateQueued, recorder.created[0].State)
	assert.NotEmpty(t, recorder.steps[id])
}

func TestEngineReportsFailedWorkflow(t *testing.T) {
	defer goleak.VerifyNone(t)

	driver := &fakeDriver{
		startErrs: []error{
			workflow.NewActivityError(workflow.KindValidation, assert.AnError),
		},
	}
	engine := newEngine(driver, nil)
	defer engine.Close()

	id, err := engine.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	status, err := engine.Await(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateFailed, status.State)
	assert.Contains(t, status.Reason, "approval start failed")
}

func TestEngineCancelStopsRunningWorkflow(t *testing.T) {
	defer goleak.VerifyNone(t)

	driver := &blockingDriver{
		fakeDriver: fakeDriver{protocolID: "PROT-2"},
		started:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}
	engine := newEngine(driver, nil)
	defer engine.Close()

	id, err := engine.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	<-driver.started
	require.NoError(t, engine.Cancel(context.Background(), id, "customer withdrew the request"))

	status, err := engine.Await(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCanceled, status.State)
	assert.Equal(t, "customer withdrew the request", status.Reason)
}

func TestEngineCancelRejectsFinishedWorkflow(t *testing.T) {
	defer goleak.VerifyNone(t)

	driver := &fakeDriver{protocolID: "PROT-3", status: "approved"}
	engine := newEngine(driver, nil)
	defer engine.Close()

	id, err := engine.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = engine.Await(context.Background(), id)
	require.NoError(t, err)

	err = engine.Cancel(context.Background(), id, "too late")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finished")
}

func TestEngineStatusUnknownWorkflow(t *testing.T) {
	engine := newEngine(&fakeDriver{}, nil)
	defer engine.Close()

	_, err := engine.Status(context.Background(), "approval-nope-0")
	require.Error(t, err)
}

func TestEngineRejectsInvalidRequest(t *testing.T) {
	engine := newEngine(&fakeDriver{}, nil)
	defer engine.Close()

	_, err := engine.Submit(context.Background(), workflow.ApprovalRequest{})
	require.Error(t, err)
	assert.Equal(t, workflow.KindValidation, workflow.KindOf(err))
}
