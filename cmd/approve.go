package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solarops/bua/internal/observability"
	"github.com/solarops/bua/internal/workflow"
)

var (
	approveProject   string
	approveUtility   string
	approveDocuments []string
	approveDetach    bool
)

var approveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Run the grid-connection approval workflow for a project.",
	Long: `Drives the utility's portal end to end: opens the approval request,
submits the project documents, and reads back the review status. With
--detach the job is only enqueued; a separate "bua worker" process picks
it up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApprove(cmd)
	},
}

func init() {
	approveCmd.Flags().StringVarP(&approveProject, "project", "p", "", "project identifier (required)")
	approveCmd.Flags().StringVarP(&approveUtility, "utility", "u", "", "utility code from the portal directory (required)")
	approveCmd.Flags().StringSliceVarP(&approveDocuments, "document", "d", nil, "document path to submit (repeatable)")
	approveCmd.Flags().BoolVar(&approveDetach, "detach", false, "enqueue the job for a worker instead of running it here")
	_ = approveCmd.MarkFlagRequired("project")
	_ = approveCmd.MarkFlagRequired("utility")
	rootCmd.AddCommand(approveCmd)
}

func runApprove(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	req := workflow.ApprovalRequest{
		ProjectID: approveProject,
		Utility:   approveUtility,
		Documents: approveDocuments,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	if approveDetach {
		return enqueueApproval(cmd, req)
	}

	orch, shutdown, err := buildOrchestrator(ctx, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	// Persist progress when a database is configured; run purely in memory
	// otherwise.
	var recorder workflow.Recorder
	if appCfg.Workflow.DatabaseURL != "" {
		jobStore, pool, err := openStore(ctx, logger)
		if err != nil {
			return err
		}
		defer pool.Close()
		recorder = jobStore
	}

	engine := workflow.NewInProcessEngine(orch, appCfg.Workflow.MaxDuration, recorder, logger)
	defer engine.Close()

	id, err := engine.Submit(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "workflow %s started\n", id)

	// Propagate Ctrl+C as a cancellation so the job records a clean reason.
	go func() {
		<-ctx.Done()
		_ = engine.Cancel(ctx, id, "interrupted by operator")
	}()

	status, err := engine.Await(ctx, id)
	if err != nil {
		return err
	}
	printStatus(cmd, status, nil)
	if status.State != workflow.StateCompleted {
		return fmt.Errorf("workflow %s %s: %s", id, status.State, status.Reason)
	}
	return nil
}

// enqueueApproval records the job as queued and returns immediately.
func enqueueApproval(cmd *cobra.Command, req workflow.ApprovalRequest) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	jobStore, pool, err := openStore(ctx, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	now := time.Now().UTC()
	status := workflow.JobStatus{
		ID:          workflow.NewWorkflowID(req.ProjectID, now),
		ProjectID:   req.ProjectID,
		State:       workflow.StateQueued,
		SubmittedAt: now,
	}
	if err := jobStore.CreateJob(ctx, status, req); err != nil {
		return err
	}

	logger.Info("Workflow enqueued.",
		zap.String("workflow_id", status.ID), zap.String("project_id", req.ProjectID))
	fmt.Fprintf(cmd.OutOrStdout(), "workflow %s queued\n", status.ID)
	return nil
}

func printStatus(cmd *cobra.Command, status *workflow.JobStatus, steps []workflow.StepRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "workflow:  %s\n", status.ID)
	fmt.Fprintf(out, "project:   %s\n", status.ProjectID)
	fmt.Fprintf(out, "state:     %s\n", status.State)
	if status.Reason != "" {
		fmt.Fprintf(out, "reason:    %s\n", status.Reason)
	}
	if status.Result != nil {
		if status.Result.ProtocolID != "" {
			fmt.Fprintf(out, "protocol:  %s\n", status.Result.ProtocolID)
		}
		if status.Result.Status != "" {
			fmt.Fprintf(out, "status:    %s\n", status.Result.Status)
		}
	}
	if len(steps) > 0 {
		fmt.Fprintln(out, "steps:")
		for _, st := range steps {
			fmt.Fprintf(out, "  %s  %-16s %s", st.At.Format(time.RFC3339), st.Step, st.Status)
			if st.Detail != "" {
				fmt.Fprintf(out, "  (%s)", st.Detail)
			}
			fmt.Fprintln(out)
		}
	}
}
