package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vixomaix/reel-to-recipe-api/internal/domain"
	"github.com/vixomaix/reel-to-recipe-api/internal/infrastructure/logger"
	"github.com/vixomaix/reel-to-recipe-api/internal/port"
)

// Notifier POSTs terminal job results to the webhook URL recorded on the
// job. Delivery is best effort: failures are logged and never retried here;
// callers that need stronger guarantees poll the job status instead.
type Notifier struct {
	secret string
	client *http.Client
}

func NewNotifier(secret string, timeout time.Duration) *Notifier {
	return &Notifier{
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

type payload struct {
	JobID  string         `json:"job_id"`
	Status string         `json:"status"`
	Recipe *domain.Recipe `json:"recipe,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (n *Notifier) NotifyResult(ctx context.Context, job *domain.Job, recipe *domain.Recipe) error {
	if job.WebhookURL == "" {
		return nil
	}

	body, err := json.Marshal(payload{
		JobID:  job.ID,
		Status: string(job.Status),
		Recipe: recipe,
		Error:  job.ErrorMessage,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.secret != "" {
		req.Header.Set("X-Webhook-Signature", n.sign(body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		logger.Warn.Printf("webhook delivery failed for job %s: %v", job.ID, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warn.Printf("webhook for job %s rejected with status %d", job.ID, resp.StatusCode)
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(n.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ port.Notifier = (*Notifier)(nil)
