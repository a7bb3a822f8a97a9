package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solarops/bua/internal/observability"
	"github.com/solarops/bua/internal/workflow"
	"github.com/solarops/bua/internal/workflow/store"
)

var (
	workerConcurrency  int
	workerPollInterval time.Duration
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued approval workflows from the database.",
	Long: `Polls the job queue and runs claimed workflows to completion. Claiming
uses row locks, so any number of workers may share one queue. The worker
runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker(cmd)
	},
}

func init() {
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 1, "number of jobs processed in parallel")
	workerCmd.Flags().DurationVar(&workerPollInterval, "poll-interval", 5*time.Second, "delay between queue polls when idle")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := observability.GetLogger().Named("worker")
	workerID := uuid.NewString()
	logger.Info("Worker starting.",
		zap.String("worker_id", workerID), zap.Int("concurrency", workerConcurrency))

	jobStore, pool, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workerConcurrency; i++ {
		g.Go(func() error {
			return pollLoop(gctx, jobStore, logger)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker stopped.", zap.String("worker_id", workerID))
		return nil
	}
	return err
}

// pollLoop claims and runs jobs until the context ends. An empty queue or a
// transient claim failure just waits for the next poll.
func pollLoop(ctx context.Context, jobStore *store.JobStore, logger *zap.Logger) error {
	for {
		claimed, err := jobStore.ClaimNextQueued(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("Failed to claim a job.", zap.Error(err))
			claimed = nil
		}

		if claimed == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(workerPollInterval):
			}
			continue
		}

		processJob(ctx, jobStore, logger, claimed)
	}
}

// processJob runs one claimed workflow and persists the outcome. Each job
// gets its own browser session and duration bound.
func processJob(ctx context.Context, jobStore *store.JobStore, logger *zap.Logger, claimed *store.QueuedJob) {
	logger.Info("Claimed workflow.",
		zap.String("workflow_id", claimed.ID), zap.String("project_id", claimed.Request.ProjectID))

	orch, shutdown, err := buildOrchestrator(ctx, logger)
	if err != nil {
		logger.Error("Failed to build approval stack.", zap.Error(err))
		finishJob(jobStore, logger, claimed, nil, err, ctx.Err() != nil)
		return
	}
	defer shutdown()

	maxDuration := appCfg.Workflow.MaxDuration
	if maxDuration <= 0 {
		maxDuration = 24 * time.Hour
	}
	runCtx, cancel := context.WithTimeout(ctx, maxDuration)
	defer cancel()

	result, err := orch.Run(runCtx, claimed.ID, claimed.Request)
	finishJob(jobStore, logger, claimed, result, err, ctx.Err() != nil)
}

// finishJob writes the terminal job state and step log. Persistence failures
// are logged; the claim already moved the row to running, so a lost update
// leaves the job visibly stuck rather than silently lost.
func finishJob(jobStore *store.JobStore, logger *zap.Logger, claimed *store.QueuedJob, result *workflow.Result, runErr error, interrupted bool) {
	status := workflow.JobStatus{
		ID:         claimed.ID,
		ProjectID:  claimed.Request.ProjectID,
		State:      workflow.StateCompleted,
		Result:     result,
		FinishedAt: time.Now().UTC(),
	}
	switch {
	case interrupted:
		status.State = workflow.StateCanceled
		status.Reason = "worker interrupted"
	case runErr != nil:
		status.State = workflow.StateFailed
		status.Reason = runErr.Error()
	}

	// The worker may be shutting down; give persistence its own deadline.
	persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := jobStore.UpdateJob(persistCtx, status); err != nil {
		logger.Error("Failed to persist workflow outcome.",
			zap.String("workflow_id", claimed.ID), zap.Error(err))
	}
	if result != nil && len(result.Steps) > 0 {
		if err := jobStore.AppendSteps(persistCtx, claimed.ID, result.Steps); err != nil {
			logger.Error("Failed to persist step log.",
				zap.String("workflow_id", claimed.ID), zap.Error(err))
		}
	}

	logger.Info("Workflow finished.",
		zap.String("workflow_id", claimed.ID), zap.String("state", string(status.State)))
}
