package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solarops/bua/api/schemas"
	"github.com/solarops/bua/internal/agent"
	"github.com/solarops/bua/internal/browser"
	"github.com/solarops/bua/internal/modelclient"
	"github.com/solarops/bua/internal/observability"
)

var (
	runTask     string
	runStartURL string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the browsing agent interactively or on a single task.",
	Long: `Starts a browser session and an agent conversation. Without --task the
command reads tasks from stdin until EOF or "exit"; with --task it runs the
one task and prints the agent's answer.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAgent(cmd)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runTask, "task", "t", "", "single task to run instead of the interactive prompt")
	runCmd.Flags().StringVar(&runStartURL, "url", "", "start URL (overrides browser.start_url)")
	rootCmd.AddCommand(runCmd)
}

func runAgent(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	sessionID := uuid.NewString()
	logger.Info("Starting agent session.", zap.String("session_id", sessionID))

	driver, err := browser.NewDriver(ctx, appCfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer driver.Close()

	model, err := modelclient.New(appCfg.Model, logger)
	if err != nil {
		return fmt.Errorf("failed to build model client: %w", err)
	}

	controller, err := agent.NewController(
		appCfg.Model, appCfg.Safety, model, driver,
		terminalAcknowledge(cmd, appCfg.Safety.AutoAcknowledge), logger)
	if err != nil {
		return fmt.Errorf("failed to build agent: %w", err)
	}

	startURL := appCfg.Browser.StartURL
	if runStartURL != "" {
		startURL = runStartURL
	}
	if startURL != "" {
		if err := driver.Navigate(ctx, startURL); err != nil {
			return fmt.Errorf("failed to open start page %s: %w", startURL, err)
		}
	}

	var history []schemas.Item
	runOne := func(task string) error {
		history = append(history, schemas.UserMessage(task))
		newItems, err := controller.RunTurn(ctx, history)
		history = append(history, newItems...)
		if err != nil {
			return err
		}
		if answer := lastAssistantText(newItems); answer != "" {
			fmt.Fprintln(cmd.OutOrStdout(), answer)
		}
		return nil
	}

	if runTask != "" {
		return runOne(runTask)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		if !scanner.Scan() {
			break
		}
		task := strings.TrimSpace(scanner.Text())
		if task == "" {
			continue
		}
		if task == "exit" || task == "quit" {
			break
		}
		if err := runOne(task); err != nil {
			// A failed turn ends that task, not the session.
			logger.Error("Turn failed.", zap.Error(err))
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// terminalAcknowledge prompts the operator for each pending safety check,
// or accepts everything when auto acknowledgment is configured.
func terminalAcknowledge(cmd *cobra.Command, auto bool) agent.AcknowledgeFunc {
	if auto {
		return func(string) bool { return true }
	}
	reader := bufio.NewReader(os.Stdin)
	return func(message string) bool {
		fmt.Fprintf(cmd.OutOrStdout(), "Safety check: %s\nProceed? [y/N] ", message)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func lastAssistantText(items []schemas.Item) string {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Role == schemas.RoleAssistant {
			return items[i].Text()
		}
	}
	return ""
}
