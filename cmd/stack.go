package cmd

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/solarops/bua/internal/agent"
	"github.com/solarops/bua/internal/approval"
	"github.com/solarops/bua/internal/browser"
	"github.com/solarops/bua/internal/modelclient"
	"github.com/solarops/bua/internal/workflow"
	"github.com/solarops/bua/internal/workflow/store"
)

// buildOrchestrator assembles the full approval stack: browser, model client,
// turn controller, approval runner, retry policy, and optional notifier. The
// returned shutdown function releases the browser.
func buildOrchestrator(ctx context.Context, logger *zap.Logger) (*workflow.Orchestrator, func(), error) {
	driver, err := browser.NewDriver(ctx, appCfg.Browser, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	model, err := modelclient.New(appCfg.Model, logger)
	if err != nil {
		driver.Close()
		return nil, nil, fmt.Errorf("failed to build model client: %w", err)
	}

	// Workflow runs are unattended. Safety checks are only cleared when the
	// operator opted in through configuration; the nil default rejects them.
	var acknowledge agent.AcknowledgeFunc
	if appCfg.Safety.AutoAcknowledge {
		acknowledge = func(message string) bool {
			logger.Warn("Auto-acknowledging safety check.", zap.String("message", message))
			return true
		}
	}

	controller, err := agent.NewController(appCfg.Model, appCfg.Safety, model, driver, acknowledge, logger)
	if err != nil {
		driver.Close()
		return nil, nil, fmt.Errorf("failed to build agent: %w", err)
	}

	runner := approval.NewRunner(appCfg.Approval, controller, logger)
	policy := workflow.NewRetryPolicy(appCfg.Workflow.Retry, logger)

	var notifier workflow.Notifier
	if appCfg.Workflow.NotifyEnabled && appCfg.Workflow.NotifyURL != "" {
		notifier = workflow.NewMailNotifier(appCfg.Workflow.NotifyURL, logger)
	}

	orch := workflow.NewOrchestrator(policy, runner, notifier, logger)
	return orch, driver.Close, nil
}

// openStore connects to the configured workflow database.
func openStore(ctx context.Context, logger *zap.Logger) (*store.JobStore, *pgxpool.Pool, error) {
	if appCfg.Workflow.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("workflow.database_url is not configured (set BUA_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, appCfg.Workflow.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	jobStore, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	if err := jobStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return jobStore, pool, nil
}
