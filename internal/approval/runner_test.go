package approval_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solarops/bua/api/schemas"
	"github.com/solarops/bua/internal/approval"
	"github.com/solarops/bua/internal/config"
	"github.com/solarops/bua/internal/workflow"
)

// scriptedAgent answers each turn with the next canned reply and records the
// instructions it received.
type scriptedAgent struct {
	replies      []string
	err          error
	instructions []string
}

func (a *scriptedAgent) RunTurn(_ context.Context, history []schemas.Item) ([]schemas.Item, error) {
	a.instructions = append(a.instructions, history[len(history)-1].Text())
	if a.err != nil {
		return nil, a.err
	}
	reply := a.replies[0]
	if len(a.replies) > 1 {
		a.replies = a.replies[1:]
	}
	return append(history, schemas.AssistantMessage(reply)), nil
}

func testDirectory() config.ApprovalConfig {
	return config.ApprovalConfig{
		Utilities: map[string]config.UtilityPortal{
			"coelba": {
				Name:              "Coelba",
				PortalURL:         "https://portal.coelba.test/agencia",
				AuthMethod:        "login_password",
				RequiredDocuments: []string{"art", "diagram"},
			},
		},
	}
}

func testRequest() workflow.ApprovalRequest {
	return workflow.ApprovalRequest{
		ProjectID: "proj-42",
		Utility:   "coelba",
		Documents: []string{"/tmp/art-signed.pdf", "/tmp/single-line-diagram.pdf"},
	}
}

func TestStartApprovalReturnsProtocolID(t *testing.T) {
	agent := &scriptedAgent{replies: []string{"  PROT-2024-0199\n"}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	protocol, err := runner.StartApproval(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "PROT-2024-0199", protocol)

	require.Len(t, agent.instructions, 1)
	assert.Contains(t, agent.instructions[0], "https://portal.coelba.test/agencia")
	assert.Contains(t, agent.instructions[0], "proj-42")
	assert.Contains(t, agent.instructions[0], "login_password")
}

func TestStartApprovalRejectsUnknownUtility(t *testing.T) {
	agent := &scriptedAgent{replies: []string{"PROT-1"}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	req := testRequest()
	req.Utility = "enel-sp"

	_, err := runner.StartApproval(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, workflow.KindValidation, workflow.KindOf(err))
	assert.Empty(t, agent.instructions)
}

func TestStartApprovalUtilityCodeIsCaseInsensitive(t *testing.T) {
	agent := &scriptedAgent{replies: []string{"PROT-7"}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	req := testRequest()
	req.Utility = "COELBA"

	protocol, err := runner.StartApproval(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "PROT-7", protocol)
}

func TestStartApprovalRejectsEmptyAnswer(t *testing.T) {
	agent := &scriptedAgent{replies: []string{"   "}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	_, err := runner.StartApproval(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "protocol number")
}

func TestStartApprovalWrapsAgentFailure(t *testing.T) {
	agentErr := errors.New("browser crashed")
	agent := &scriptedAgent{err: agentErr}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	_, err := runner.StartApproval(context.Background(), testRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, agentErr)
	// Agent failures default to transient so the workflow retries them.
	assert.Equal(t, workflow.KindTransient, workflow.KindOf(err))
}

func TestSubmitDocumentsListsEveryDocument(t *testing.T) {
	agent := &scriptedAgent{replies: []string{"submitted"}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	err := runner.SubmitDocuments(context.Background(), testRequest(), "PROT-2024-0199")
	require.NoError(t, err)

	require.Len(t, agent.instructions, 1)
	assert.Contains(t, agent.instructions[0], "PROT-2024-0199")
	assert.Contains(t, agent.instructions[0], "/tmp/art-signed.pdf")
	assert.Contains(t, agent.instructions[0], "/tmp/single-line-diagram.pdf")
}

func TestSubmitDocumentsRejectsMissingRequiredDocument(t *testing.T) {
	agent := &scriptedAgent{replies: []string{"submitted"}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	req := testRequest()
	req.Documents = []string{"/tmp/art-signed.pdf"}

	err := runner.SubmitDocuments(context.Background(), req, "PROT-1")
	require.Error(t, err)
	assert.Equal(t, workflow.KindMissingKey, workflow.KindOf(err))
	assert.Contains(t, err.Error(), "diagram")
	assert.Empty(t, agent.instructions)
}

func TestCheckStatusReturnsPortalStatus(t *testing.T) {
	agent := &scriptedAgent{replies: []string{"Em análise técnica"}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	status, err := runner.CheckStatus(context.Background(), testRequest(), "PROT-1")
	require.NoError(t, err)
	assert.Equal(t, "Em análise técnica", status)

	require.Len(t, agent.instructions, 1)
	assert.True(t, strings.Contains(agent.instructions[0], "PROT-1"))
}

func TestCheckStatusRejectsEmptyAnswer(t *testing.T) {
	agent := &scriptedAgent{replies: []string{""}}
	runner := approval.NewRunner(testDirectory(), agent, zap.NewNop())

	_, err := runner.CheckStatus(context.Background(), testRequest(), "PROT-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status")
}
