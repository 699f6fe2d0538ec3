package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/pkg/config"
)

var _ ports.Notifier = (*HubSpot)(nil)

const hubspotContactsPath = "/crm/v3/objects/contacts"

// HubSpot crea el contacto en el CRM cuando entra un lead nuevo. Los demás eventos se ignoran.
type HubSpot struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHubSpot construye el canal con un token de app privada.
func NewHubSpot(cfg config.HubSpotConfig) *HubSpot {
	return &HubSpot{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.AccessToken,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implementa ports.Notifier.
func (n *HubSpot) Name() string { return "hubspot" }

type hubspotContact struct {
	Properties map[string]string `json:"properties"`
}

// Notify crea el contacto. 409 (el email ya existe en el CRM) no es un error.
func (n *HubSpot) Notify(ctx context.Context, e ports.LeadEvent) error {
	if e.Type != ports.EventLeadCreated || e.Lead.Email == "" {
		return nil
	}
	props := map[string]string{
		"email":          e.Lead.Email,
		"firstname":      e.Lead.FirstName,
		"lastname":       e.Lead.LastName,
		"company":        e.Lead.Company,
		"phone":          e.Lead.Phone,
		"lifecyclestage": "lead",
	}
	for k, v := range props {
		if v == "" {
			delete(props, k)
		}
	}
	payload, err := json.Marshal(hubspotContact{Properties: props})
	if err != nil {
		return fmt.Errorf("hubspot: serializar: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+hubspotContactsPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("hubspot: crear request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hubspot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusConflict || resp.StatusCode < 300 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("hubspot: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
}
