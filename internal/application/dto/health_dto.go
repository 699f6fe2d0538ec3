package dto

import "time"

// Estados de un servicio en /health.
const (
	ServiceConnected    = "connected"
	ServiceDisconnected = "disconnected"
	ServiceDisabled     = "disabled"
)

// ServiceHealth estado de una dependencia.
type ServiceHealth struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse agregado de dependencias.
type HealthResponse struct {
	Status    string                   `json:"status"` // healthy | unhealthy
	Service   string                   `json:"service"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services"`
}
