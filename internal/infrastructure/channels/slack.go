package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
)

var _ ports.Notifier = (*Slack)(nil)

// Slack mensaje a un webhook entrante.
type Slack struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlack construye el canal. El contexto de cada envío limita además el tiempo.
func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

// Name implementa ports.Notifier.
func (n *Slack) Name() string { return "slack" }

type slackPayload struct {
	Text string `json:"text"`
}

// Notify publica asunto y detalle como un único mensaje.
func (n *Slack) Notify(ctx context.Context, e ports.LeadEvent) error {
	payload, err := json.Marshal(slackPayload{Text: "*" + subject(e) + "*\n" + body(e)})
	if err != nil {
		return fmt.Errorf("slack: serializar: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("slack: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("slack: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	return nil
}
