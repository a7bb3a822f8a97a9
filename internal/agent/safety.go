package agent

import (
	"go.uber.org/zap"

	"github.com/solarops/bua/api/schemas"
)

// AcknowledgeFunc decides whether one pending safety check may proceed. The
// interactive CLI prompts the operator; unattended runs may inject a policy.
type AcknowledgeFunc func(message string) bool

// SafetyGate intercepts pending safety warnings attached to a call item and
// requires explicit acknowledgment before the action executes.
type SafetyGate struct {
	acknowledge AcknowledgeFunc
	logger      *zap.Logger
}

// NewSafetyGate builds a gate around the given acknowledgment callback. A nil
// callback rejects everything, which is the safe default.
func NewSafetyGate(acknowledge AcknowledgeFunc, logger *zap.Logger) *SafetyGate {
	if acknowledge == nil {
		acknowledge = func(string) bool { return false }
	}
	return &SafetyGate{acknowledge: acknowledge, logger: logger.Named("safety")}
}

// Clear runs every pending check through the acknowledgment callback. All
// checks for one item are gated together: the first rejection fails the turn
// with a *SafetyRejectedError and nothing executes partially.
func (g *SafetyGate) Clear(checks []schemas.SafetyCheck) error {
	for _, check := range checks {
		g.logger.Warn("Pending safety check requires acknowledgment.",
			zap.String("code", check.Code),
			zap.String("message", check.Message))
		if !g.acknowledge(check.Message) {
			return &SafetyRejectedError{Message: check.Message}
		}
	}
	return nil
}
