package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/validation"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
	"github.com/jhoicas/agencia-leads-api/pkg/sanitize"
)

// Mensajes devueltos al formulario público.
const (
	intakeMessage         = "Gracias, hemos recibido tu solicitud. Te contactaremos pronto."
	intakeFallbackMessage = "Gracias, hemos recibido tu solicitud. Te contactaremos pronto (ref. pendiente de registro)."
)

// IntakeMeta metadatos de la petición usados para inferir el canal y para el log.
type IntakeMeta struct {
	Referrer  string
	UserAgent string
	IP        string
	RequestID string
}

// IntakeUseCase alta de leads desde el formulario público. Los leads se asignan a la agencia
// por defecto de la plataforma.
type IntakeUseCase struct {
	leads         repository.LeadRepository
	activities    repository.ActivityRepository
	tenants       repository.TenantRepository
	ledger        ports.IntakeLedger
	events        ports.EventPublisher
	defaultDomain string
	log           *logger.Logger
	now           func() time.Time
}

// NewIntakeUseCase construye el caso de uso. ledger y events pueden ser nil.
func NewIntakeUseCase(
	leads repository.LeadRepository,
	activities repository.ActivityRepository,
	tenants repository.TenantRepository,
	ledger ports.IntakeLedger,
	events ports.EventPublisher,
	defaultDomain string,
	log *logger.Logger,
) *IntakeUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &IntakeUseCase{
		leads:         leads,
		activities:    activities,
		tenants:       tenants,
		ledger:        ledger,
		events:        events,
		defaultDomain: strings.ToLower(strings.TrimSpace(defaultDomain)),
		log:           log.Component("intake"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Submit valida, limpia y guarda el envío. Solo falla por validación: si el almacén no
// responde, el envío va al sink secundario y la respuesta sigue siendo exitosa.
func (uc *IntakeUseCase) Submit(ctx context.Context, in dto.PublicLeadRequest, meta IntakeMeta) (*dto.PublicLeadResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	trackingID := uuid.New().String()
	now := uc.now()
	log := uc.log.With().Str("tracking_id", trackingID).Str("request_id", meta.RequestID).Logger()

	lead := &entity.Lead{
		ID:        uuid.New().String(),
		FirstName: sanitize.Text(in.FirstName),
		LastName:  sanitize.Text(in.LastName),
		Company:   sanitize.Text(in.Company),
		Email:     strings.TrimSpace(in.Email),
		Phone:     sanitize.Text(in.Phone),
		Status:    entity.LeadStatusNew,
		Priority:  entity.PriorityMedium,
		Source:    InferSource(in.Source, meta.Referrer, meta.UserAgent),
		Notes:     sanitize.Text(in.Message),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pos, size := sanitize.Text(in.Position), sanitize.Text(in.CompanySize); pos != "" || size != "" {
		lead.Qualification = &entity.Qualification{Position: pos, CompanySize: size}
	}
	details := map[string]any{"tracking_id": trackingID, "source": lead.Source}
	for k, v := range map[string]string{"utm_source": in.UTMSource, "utm_medium": in.UTMMedium, "utm_campaign": in.UTMCampaign} {
		if v = sanitize.Text(v); v != "" {
			details[k] = v
		}
	}

	tenant, err := uc.tenants.GetByDomain(ctx, uc.defaultDomain)
	switch {
	case err != nil:
		return uc.fallback(ctx, lead, details, trackingID, fmt.Sprintf("tenant por defecto: %v", err)), nil
	case tenant == nil:
		return uc.fallback(ctx, lead, details, trackingID, "tenant por defecto no encontrado: "+uc.defaultDomain), nil
	}
	lead.ClientID = tenant.ID

	// Un contacto ya registrado en la agencia (mismo email normalizado) no crea otro lead:
	// el nuevo mensaje se añade a su historial.
	existing, err := uc.leads.GetByEmail(ctx, tenant.ID, lead.Email)
	if err != nil {
		return uc.fallback(ctx, lead, details, trackingID, fmt.Sprintf("buscar lead por email: %v", err)), nil
	}
	if existing != nil {
		return uc.resubmit(ctx, tenant, existing, lead, details, trackingID), nil
	}
	if err := uc.leads.Create(ctx, lead); err != nil {
		// Carrera con otro envío del mismo email entre la búsqueda y el alta.
		if errors.Is(err, domain.ErrDuplicate) {
			if existing, gerr := uc.leads.GetByEmail(ctx, tenant.ID, lead.Email); gerr == nil && existing != nil {
				return uc.resubmit(ctx, tenant, existing, lead, details, trackingID), nil
			}
		}
		return uc.fallback(ctx, lead, details, trackingID, fmt.Sprintf("crear lead: %v", err)), nil
	}

	desc := "Lead recibido desde el formulario web"
	if err := uc.activities.Create(ctx, &entity.Activity{
		ID:          uuid.New().String(),
		ClientID:    tenant.ID,
		LeadID:      strPtr(lead.ID),
		Type:        entity.ActivityNote,
		Description: desc,
		Metadata:    details,
		CreatedAt:   now,
	}); err != nil {
		log.Warn().Err(err).Str("lead_id", lead.ID).Msg("no se registró la actividad de alta")
	}
	uc.publish(ports.LeadEvent{
		Type:       ports.EventLeadCreated,
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		Lead:       *lead,
		Score:      entity.Score(lead, tenant.Settings.ScoringWeight),
		Message:    lead.Notes,
		TrackingID: trackingID,
		OccurredAt: now,
	})
	log.Info().Str("lead_id", lead.ID).Str("client_id", tenant.ID).Str("source", lead.Source).Msg("lead recibido")
	return &dto.PublicLeadResponse{
		Success: true,
		Message: intakeMessage,
		Data:    dto.PublicLeadData{TrackingID: trackingID, LeadID: lead.ID},
	}, nil
}

// resubmit añade el envío repetido al lead existente como nota y devuelve su ID. Los datos
// del lead no se sobrescriben: los edita el equipo de la agencia.
func (uc *IntakeUseCase) resubmit(ctx context.Context, tenant *entity.Tenant, existing, submitted *entity.Lead, details map[string]any, trackingID string) *dto.PublicLeadResponse {
	log := uc.log.With().Str("tracking_id", trackingID).Str("lead_id", existing.ID).Logger()

	meta := make(map[string]any, len(details)+1)
	for k, v := range details {
		meta[k] = v
	}
	if submitted.Notes != "" {
		meta["message"] = submitted.Notes
	}
	if err := uc.activities.Create(ctx, &entity.Activity{
		ID:          uuid.New().String(),
		ClientID:    tenant.ID,
		LeadID:      strPtr(existing.ID),
		Type:        entity.ActivityNote,
		Description: "Nuevo envío del formulario web",
		Metadata:    meta,
		CreatedAt:   submitted.CreatedAt,
	}); err != nil {
		// El lead existe: el envío queda en el sink secundario para no perder el mensaje.
		return uc.fallback(ctx, submitted, details, trackingID, fmt.Sprintf("nota de reenvío: %v", err))
	}
	uc.publish(ports.LeadEvent{
		Type:       ports.EventLeadResubmitted,
		TenantID:   tenant.ID,
		TenantName: tenant.Name,
		Lead:       *existing,
		Score:      entity.Score(existing, tenant.Settings.ScoringWeight),
		Message:    submitted.Notes,
		TrackingID: trackingID,
		OccurredAt: submitted.CreatedAt,
	})
	log.Info().Str("client_id", tenant.ID).Str("source", submitted.Source).Msg("lead existente: envío añadido al historial")
	return &dto.PublicLeadResponse{
		Success: true,
		Message: intakeMessage,
		Data:    dto.PublicLeadData{TrackingID: trackingID, LeadID: existing.ID},
	}
}

// fallback registra el envío en el sink secundario y dispara igualmente las notificaciones,
// que son el otro registro del contacto. Nunca devuelve error.
func (uc *IntakeUseCase) fallback(ctx context.Context, lead *entity.Lead, details map[string]any, trackingID, reason string) *dto.PublicLeadResponse {
	log := uc.log.With().Str("tracking_id", trackingID).Logger()
	log.Error().Str("reason", reason).Msg("no se pudo guardar el lead; usando sink secundario")

	rec := ports.IntakeRecord{
		TrackingID: trackingID,
		TenantID:   lead.ClientID,
		Reason:     reason,
		ReceivedAt: lead.CreatedAt,
		Payload: map[string]any{
			"first_name": lead.FirstName,
			"last_name":  lead.LastName,
			"company":    lead.Company,
			"email":      lead.Email,
			"phone":      lead.Phone,
			"message":    lead.Notes,
			"source":     lead.Source,
			"details":    details,
		},
	}
	// Sin sink (o si no confirma), el log es el último registro del envío completo.
	if uc.ledger == nil {
		log.Error().Interface("payload", rec.Payload).Msg("sin sink secundario; envío solo en log")
	} else if err := uc.ledger.Record(ctx, rec); err != nil {
		log.Error().Err(err).Interface("payload", rec.Payload).Msg("sink secundario falló; envío solo en log")
	}
	pending := *lead
	pending.ID = ""
	uc.publish(ports.LeadEvent{
		Type:       ports.EventLeadCreated,
		TenantID:   lead.ClientID,
		Lead:       pending,
		Score:      entity.Score(&pending, entity.ScoringWeights{}),
		Message:    lead.Notes,
		TrackingID: trackingID,
		OccurredAt: lead.CreatedAt,
	})
	return &dto.PublicLeadResponse{
		Success: true,
		Message: intakeFallbackMessage,
		Data:    dto.PublicLeadData{TrackingID: trackingID},
	}
}

func (uc *IntakeUseCase) publish(ev ports.LeadEvent) {
	if uc.events != nil {
		uc.events.Publish(ev)
	}
}
