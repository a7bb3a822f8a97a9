package cmd

import (
	"github.com/spf13/cobra"

	"github.com/solarops/bua/internal/observability"
)

var statusCmd = &cobra.Command{
	Use:   "status <workflow-id>",
	Short: "Show the state and step log of a workflow.",
	Args:  cobra.ExactArgs(1),
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
		steps, err := jobStore.GetSteps(ctx, args[0])
		if err != nil {
			return err
		}

		printStatus(cmd, status, steps)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
