package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/solarops/bua/internal/observability"
	"github.com/solarops/bua/internal/workflow"
)

var cancelReason string

var cancelCmd = &cobra.Command{
	Use:   "cancel <workflow-id>",
	Short: "Cancel a queued workflow.",
	Long: `Marks a queued workflow as canceled so no worker picks it up. A job a
worker already claimed must be stopped by interrupting that worker; its
duration bound cancels it otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := observability.GetLogger()

		jobStore, pool, err := openStore(ctx, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		status, err := jobStore.GetJob(ctx, args[0])
		if err != nil {
			return err
		}
		if status.State != workflow.StateQueued {
			return fmt.Errorf("workflow %s is %s, only queued workflows can be canceled here", status.ID, status.State)
		}

		status.State = workflow.StateCanceled
		status.Reason = cancelReason
		status.FinishedAt = time.Now().UTC()
		if err := jobStore.UpdateJob(ctx, *status); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "workflow %s canceled\n", status.ID)
		return nil
	},
}

func init() {
	cancelCmd.Flags().StringVarP(&cancelReason, "reason", "r", "canceled by operator", "reason recorded on the job")
	rootCmd.AddCommand(cancelCmd)
}
