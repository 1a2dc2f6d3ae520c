// Package notify posts low-rating review alerts to a configured webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yuantang/AppReviewMontior/pkg/models"
)

// DefaultTimeout bounds one webhook delivery attempt.
const DefaultTimeout = 10 * time.Second

// Notifier delivers best-effort alerts. Failures must never propagate into
// the sync pipeline.
type Notifier interface {
	// Notify posts an alert for the review. Fire-and-forget: errors are
	// logged and swallowed.
	Notify(ctx context.Context, webhookURL string, review *models.Review, appName string)
}

type webhookNotifier struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a webhook-backed notifier.
func NewWebhookNotifier(logger *zap.Logger) Notifier {
	return &webhookNotifier{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger.Named("notify"),
	}
}

var _ Notifier = (*webhookNotifier)(nil)

// webhookPayload is the message format the alert channel expects.
type webhookPayload struct {
	MsgType string `json:"msg_type"`
	Content struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (n *webhookNotifier) Notify(ctx context.Context, webhookURL string, review *models.Review, appName string) {
	if webhookURL == "" {
		return
	}

	payload := webhookPayload{MsgType: "text"}
	payload.Content.Text = fmt.Sprintf("Negative review for %s:\n%d/5 stars\n%s\n%q",
		appName, review.Rating, review.Title, review.Body)

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("Failed to encode webhook payload", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Failed to create webhook request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Warn("Webhook delivery failed",
			zap.String("review_id", review.ReviewID),
			zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.Warn("Webhook returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("review_id", review.ReviewID))
		return
	}

	n.logger.Info("Sent low-rating alert",
		zap.String("review_id", review.ReviewID),
		zap.String("app", appName),
		zap.Int("rating", review.Rating))
}
