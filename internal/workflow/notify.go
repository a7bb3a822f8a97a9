package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// MailNotifier posts transactional messages to a listmonk-compatible
// endpoint. Delivery is best effort; the orchestrator logs and ignores
// failures.
type MailNotifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewMailNotifier(endpoint string, logger *zap.Logger) *MailNotifier {
	return &MailNotifier{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.Named("notify"),
	}
}

type txMessage struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (n *MailNotifier) Notify(ctx context.Context, subject, body string) error {
	payload, err := json.Marshal(txMessage{Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	n.logger.Debug("Notification delivered.", zap.String("subject", subject))
	return nil
}
