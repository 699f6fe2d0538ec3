package ports

import (
	"context"
	"time"
)

// IntakeRecord envío del formulario público que no pudo guardarse en el almacén.
type IntakeRecord struct {
	TrackingID string         `json:"tracking_id"`
	TenantID   string         `json:"tenant_id"`
	Payload    map[string]any `json:"payload"`
	Reason     string         `json:"reason"`
	ReceivedAt time.Time      `json:"received_at"`
}

// IntakeLedger sink secundario para no perder envíos cuando falla el almacén principal.
type IntakeLedger interface {
	Record(ctx context.Context, rec IntakeRecord) error
}
