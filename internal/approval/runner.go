// Package approval turns the agent loop into the domain activities of the
// interconnection approval workflow: it looks up the utility portal in the
// configured directory, phrases each activity as a browsing task, and reads
// the outcome out of the agent's final answer.
package approval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/solarops/bua/api/schemas"
	"github.com/solarops/bua/internal/config"
	"github.com/solarops/bua/internal/workflow"
)

// TurnRunner is the slice of the agent loop the runner needs. The turn
// controller satisfies it.
type TurnRunner interface {
	RunTurn(ctx context.Context, history []schemas.Item) ([]schemas.Item, error)
}

// Runner implements workflow.ApprovalDriver on top of a browsing agent.
type Runner struct {
	directory config.ApprovalConfig
	agent     TurnRunner
	logger    *zap.Logger
}

func NewRunner(directory config.ApprovalConfig, agent TurnRunner, logger *zap.Logger) *Runner {
	return &Runner{
		directory: directory,
		agent:     agent,
		logger:    logger.Named("approval"),
	}
}

// portalFor resolves the utility code against the directory. An unknown code
// is a validation failure; retrying cannot fix it.
func (r *Runner) portalFor(utility string) (config.UtilityPortal, error) {
	portal, ok := r.directory.Utilities[strings.ToLower(utility)]
	if !ok {
		return config.UtilityPortal{}, workflow.NewActivityError(workflow.KindValidation,
			fmt.Errorf("utility %q is not in the portal directory", utility))
	}
	return portal, nil
}

// runTask submits one instruction to the agent and returns its final answer.
func (r *Runner) runTask(ctx context.Context, instruction string) (string, error) {
	items, err := r.agent.RunTurn(ctx, []schemas.Item{schemas.UserMessage(instruction)})
	if err != nil {
		return "", fmt.Errorf("agent task failed: %w", err)
	}

	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Role == schemas.RoleAssistant {
			return strings.TrimSpace(items[i].Text()), nil
		}
	}
	return "", fmt.Errorf("agent finished without an answer")
}

// StartApproval opens a new interconnection request on the utility portal
// and returns the protocol id the portal assigned.
func (r *Runner) StartApproval(ctx context.Context, req workflow.ApprovalRequest) (string, error) {
	portal, err := r.portalFor(req.Utility)
	if err != nil {
		return "", err
	}

	r.logger.Info("Starting approval request.",
		zap.String("project_id", req.ProjectID),
		zap.String("utility", portal.Name))

	instruction := fmt.Sprintf(
		"Open the %s interconnection portal at %s and sign in using the %s method. "+
			"Start a new grid-connection approval request for project %s, filling every "+
			"required field of the request form. When the portal confirms the request, "+
			"answer with only the protocol number it assigned.",
		portal.Name, portal.PortalURL, portal.AuthMethod, req.ProjectID)

	answer, err := r.runTask(ctx, instruction)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", fmt.Errorf("portal did not report a protocol number")
	}
	return answer, nil
}

// SubmitDocuments uploads the request's documents under the protocol. Every
// document the portal requires must be present before the agent starts.
func (r *Runner) SubmitDocuments(ctx context.Context, req workflow.ApprovalRequest, protocolID string) error {
	portal, err := r.portalFor(req.Utility)
	if err != nil {
		return err
	}

	if missing := missingDocuments(portal.RequiredDocuments, req.Documents); len(missing) > 0 {
		return workflow.NewActivityError(workflow.KindMissingKey,
			fmt.Errorf("required documents missing for %s: %s", portal.Name, strings.Join(missing, ", ")))
	}

	r.logger.Info("Submitting documents.",
		zap.String("protocol_id", protocolID),
		zap.Int("count", len(req.Documents)))

	instruction := fmt.Sprintf(
		"On the %s portal at %s, open protocol %s and upload the following documents, "+
			"one per upload field, then confirm the submission: %s. "+
			"Answer with 'submitted' once the portal acknowledges all uploads.",
		portal.Name, portal.PortalURL, protocolID, strings.Join(req.Documents, ", "))

	_, err = r.runTask(ctx, instruction)
	return err
}

// CheckStatus reads the current review status of the protocol.
func (r *Runner) CheckStatus(ctx context.Context, req workflow.ApprovalRequest, protocolID string) (string, error) {
	portal, err := r.portalFor(req.Utility)
	if err != nil {
		return "", err
	}

	instruction := fmt.Sprintf(
		"On the %s portal at %s, look up protocol %s and read its current review status. "+
			"Answer with only the status text shown by the portal.",
		portal.Name, portal.PortalURL, protocolID)

	status, err := r.runTask(ctx, instruction)
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", fmt.Errorf("portal did not report a status for protocol %s", protocolID)
	}
	return status, nil
}

// missingDocuments reports which required document names have no matching
// entry in the submitted paths. Matching is by substring so a requirement
// like "art" matches "/tmp/art-signed.pdf".
func missingDocuments(required, submitted []string) []string {
	var missing []string
	for _, name := range required {
		found := false
		for _, path := range submitted {
			if strings.Contains(strings.ToLower(path), strings.ToLower(name)) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, name)
		}
	}
	return missing
}
