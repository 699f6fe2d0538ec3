package usecase

import (
	"context"
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

// LeadUseCase ciclo de vida de leads dentro de una agencia: alta manual, consulta,
// actualización parcial, asignación, calificación, actividades y métricas.
type LeadUseCase struct {
	leads      repository.LeadRepository
	activities repository.ActivityRepository
	users      repository.UserRepository
	tenants    repository.TenantRepository
	events     ports.EventPublisher
	log        *logger.Logger
	now        func() time.Time
}

// NewLeadUseCase construye el caso de uso. events puede ser nil (sin notificaciones).
func NewLeadUseCase(
	leads repository.LeadRepository,
	activities repository.ActivityRepository,
	users repository.UserRepository,
	tenants repository.TenantRepository,
	events ports.EventPublisher,
	log *logger.Logger,
) *LeadUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &LeadUseCase{
		leads:      leads,
		activities: activities,
		users:      users,
		tenants:    tenants,
		events:     events,
		log:        log.Component("leads"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create alta manual. El lead queda siempre en la agencia del actor, ignorando cualquier
// client_id del cuerpo.
func (uc *LeadUseCase) Create(ctx context.Context, actor Actor, in dto.CreateLeadRequest) (*dto.LeadResponse, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	ve := domain.NewValidationError()
	if in.EstimatedValue != nil && in.EstimatedValue.IsNegative() {
		ve.Add("estimated_value", "no puede ser negativo")
	}
	assignee, err := uc.resolveAssignee(ctx, actor.TenantID, in.AssignedTo, ve)
	if err != nil {
		return nil, err
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	existing, err := uc.leads.GetByEmail(ctx, actor.TenantID, in.Email)
	if err != nil {
		return nil, fmt.Errorf("buscar lead por email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := uc.now()
	lead := &entity.Lead{
		ID:                 uuid.New().String(),
		ClientID:           actor.TenantID,
		FirstName:          sanitize.Text(in.FirstName),
		LastName:           sanitize.Text(in.LastName),
		Company:            sanitize.Text(in.Company),
		Email:              strings.TrimSpace(in.Email),
		Phone:              sanitize.Text(in.Phone),
		Status:             entity.LeadStatusNew,
		Priority:           entity.PriorityMedium,
		Source:             entity.SourceManual,
		AssignedTo:         assignee,
		EstimatedValue:     in.EstimatedValue,
		ClosingProbability: in.ClosingProbability,
		Notes:              sanitize.Text(in.Notes),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if in.Priority != "" {
		lead.Priority = in.Priority
	}
	if src := sanitize.Text(strings.ToLower(in.Source)); src != "" {
		lead.Source = src
	}
	if in.Status != "" {
		lead.ApplyStatus(in.Status, now)
	}
	if err := uc.leads.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("crear lead: %w", err)
	}
	if err := uc.appendActivity(ctx, lead.ClientID, &lead.ID, actor.userRef(), entity.ActivityNote,
		"Lead creado manualmente", map[string]any{"source": lead.Source}); err != nil {
		return nil, err
	}
	w := newWeightCache(uc.tenants).get(ctx, lead.ClientID)
	uc.publish(ctx, ports.EventLeadCreated, lead, w, "")
	resp := toLeadResponse(lead, w)
	return &resp, nil
}

// Get lead de la agencia; ErrNotFound si no existe o es de otra agencia.
func (uc *LeadUseCase) Get(ctx context.Context, tenantID, id string) (*dto.LeadResponse, error) {
	lead, err := uc.load(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := toLeadResponse(lead, newWeightCache(uc.tenants).get(ctx, tenantID))
	return &resp, nil
}

// List leads de la agencia con filtros y paginación.
func (uc *LeadUseCase) List(ctx context.Context, tenantID string, in dto.LeadListRequest) (*dto.LeadListResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrNoTenant
	}
	in.ClientID = ""
	return uc.list(ctx, &tenantID, in)
}

// ListAll vista de plataforma: todas las agencias o la indicada en client_id.
func (uc *LeadUseCase) ListAll(ctx context.Context, in dto.LeadListRequest) (*dto.LeadListResponse, error) {
	var clientID *string
	if in.ClientID != "" {
		clientID = strPtr(in.ClientID)
	}
	return uc.list(ctx, clientID, in)
}

func (uc *LeadUseCase) list(ctx context.Context, clientID *string, in dto.LeadListRequest) (*dto.LeadListResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	in.DefaultPage()
	items, total, err := uc.leads.List(ctx, repository.LeadFilter{
		ClientID:   clientID,
		Status:     in.Status,
		Priority:   in.Priority,
		Source:     in.Source,
		AssignedTo: in.AssignedTo,
		Search:     strings.TrimSpace(in.Search),
		Limit:      in.Limit,
		Offset:     in.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listar leads: %w", err)
	}
	weights := newWeightCache(uc.tenants)
	out := make([]dto.LeadResponse, 0, len(items))
	for _, l := range items {
		out = append(out, toLeadResponse(l, weights.get(ctx, l.ClientID)))
	}
	return &dto.LeadListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: total},
	}, nil
}

// Update actualización parcial. Se valida todo antes de aplicar: un error no deja cambios.
// Un cambio de estado agrega una actividad status_change; una reasignación, una nota.
func (uc *LeadUseCase) Update(ctx context.Context, actor Actor, id string, in dto.UpdateLeadRequest) (*dto.LeadResponse, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		ve := domain.NewValidationError()
		ve.Add("body", "no hay campos para actualizar")
		return nil, ve
	}
	lead, err := uc.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}

	ve := domain.NewValidationError()
	if in.EstimatedValue != nil && in.EstimatedValue.IsNegative() {
		ve.Add("estimated_value", "no puede ser negativo")
	}
	var assignee *string
	if in.AssignedTo != nil {
		if assignee, err = uc.resolveAssignee(ctx, actor.TenantID, *in.AssignedTo, ve); err != nil {
			return nil, err
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	if in.Status != nil && !entity.CanTransition(lead.Status, *in.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, lead.Status, *in.Status)
	}

	now := uc.now()
	prevStatus := lead.Status
	statusChanged := false
	if in.Status != nil {
		statusChanged, _ = lead.ApplyStatus(*in.Status, now)
	}
	if in.Priority != nil {
		lead.Priority = *in.Priority
	}
	if in.Notes != nil {
		lead.Notes = sanitize.Text(*in.Notes)
	}
	if in.EstimatedValue != nil {
		v := *in.EstimatedValue
		lead.EstimatedValue = &v
	}
	if in.ClosingProbability != nil && lead.IsOpen() {
		p := *in.ClosingProbability
		lead.ClosingProbability = &p
	}
	assignChanged := false
	if in.AssignedTo != nil && !sameRef(lead.AssignedTo, assignee) {
		lead.AssignedTo = assignee
		assignChanged = true
	}
	lead.UpdatedAt = now
	if err := uc.leads.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("actualizar lead: %w", err)
	}

	w := newWeightCache(uc.tenants).get(ctx, lead.ClientID)
	if statusChanged {
		if err := uc.appendActivity(ctx, lead.ClientID, &lead.ID, actor.userRef(), entity.ActivityStatusChange,
			fmt.Sprintf("Estado cambiado de %s a %s", prevStatus, lead.Status),
			map[string]any{"from": prevStatus, "to": lead.Status}); err != nil {
			return nil, err
		}
		uc.publish(ctx, ports.EventLeadStatusChanged, lead, w, prevStatus)
	}
	if assignChanged {
		desc := "Lead desasignado"
		meta := map[string]any{"assigned_to": nil}
		if lead.AssignedTo != nil {
			desc = "Lead asignado"
			meta["assigned_to"] = *lead.AssignedTo
		}
		if err := uc.appendActivity(ctx, lead.ClientID, &lead.ID, actor.userRef(), entity.ActivityNote, desc, meta); err != nil {
			return nil, err
		}
		if lead.AssignedTo != nil {
			uc.publish(ctx, ports.EventLeadAssigned, lead, w, "")
		}
	}
	resp := toLeadResponse(lead, w)
	return &resp, nil
}

// UpdatePriority atajo de Update para la prioridad.
func (uc *LeadUseCase) UpdatePriority(ctx context.Context, actor Actor, id string, in dto.UpdatePriorityRequest) (*dto.LeadResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return uc.Update(ctx, actor, id, dto.UpdateLeadRequest{Priority: &in.Priority})
}

// Assign asigna (o desasigna con "") el lead a un usuario de la misma agencia.
func (uc *LeadUseCase) Assign(ctx context.Context, actor Actor, id string, in dto.AssignLeadRequest) (*dto.LeadResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return uc.Update(ctx, actor, id, dto.UpdateLeadRequest{AssignedTo: &in.AssignedTo})
}

// Stats métricas del pipeline; tenantID nil = global (vista de plataforma).
func (uc *LeadUseCase) Stats(ctx context.Context, tenantID *string) (*dto.LeadStatsResponse, error) {
	rows, err := uc.leads.AggregateByStatus(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("agregar leads: %w", err)
	}
	out := statsFromAggregates(rows)
	return &out, nil
}

// AddActivity registra una interacción manual sobre un lead de la agencia.
func (uc *LeadUseCase) AddActivity(ctx context.Context, actor Actor, leadID string, in dto.CreateActivityRequest) (*dto.ActivityResponse, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	lead, err := uc.load(ctx, actor.TenantID, leadID)
	if err != nil {
		return nil, err
	}
	a := &entity.Activity{
		ID:          uuid.New().String(),
		ClientID:    lead.ClientID,
		LeadID:      strPtr(lead.ID),
		UserID:      actor.userRef(),
		Type:        in.Type,
		Description: sanitize.Text(in.Description),
		Metadata:    sanitize.Map(in.Metadata),
		CreatedAt:   uc.now(),
	}
	if err := uc.activities.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("crear actividad: %w", err)
	}
	resp := toActivityResponse(a)
	return &resp, nil
}

// ListActivities historial de un lead, más reciente primero.
func (uc *LeadUseCase) ListActivities(ctx context.Context, tenantID, leadID string, limit int) ([]dto.ActivityResponse, error) {
	if _, err := uc.load(ctx, tenantID, leadID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	list, err := uc.activities.ListByLead(ctx, tenantID, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("listar actividades: %w", err)
	}
	out := make([]dto.ActivityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toActivityResponse(a))
	}
	return out, nil
}

func (uc *LeadUseCase) load(ctx context.Context, tenantID, id string) (*entity.Lead, error) {
	if tenantID == "" {
		return nil, domain.ErrNoTenant
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	lead, err := uc.leads.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("obtener lead: %w", err)
	}
	if lead == nil {
		return nil, domain.ErrNotFound
	}
	return lead, nil
}

// resolveAssignee "" = sin asignar. Un usuario de otra agencia se reporta como error de campo.
func (uc *LeadUseCase) resolveAssignee(ctx context.Context, tenantID, userID string, ve *domain.ValidationError) (*string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	if !validID(userID) {
		ve.Add("assigned_to", "debe ser un UUID válido")
		return nil, nil
	}
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener usuario asignado: %w", err)
	}
	if u == nil || !u.BelongsTo(tenantID) {
		ve.Add("assigned_to", "el usuario no pertenece a la agencia")
		return nil, nil
	}
	return strPtr(u.ID), nil
}

func (uc *LeadUseCase) appendActivity(ctx context.Context, clientID string, leadID, userID *string, typ, desc string, meta map[string]any) error {
	a := &entity.Activity{
		ID:          uuid.New().String(),
		ClientID:    clientID,
		LeadID:      leadID,
		UserID:      userID,
		Type:        typ,
		Description: desc,
		Metadata:    meta,
		CreatedAt:   uc.now(),
	}
	if err := uc.activities.Create(ctx, a); err != nil {
		return fmt.Errorf("registrar actividad: %w", err)
	}
	return nil
}

func (uc *LeadUseCase) publish(ctx context.Context, typ string, lead *entity.Lead, w entity.ScoringWeights, prev string) {
	if uc.events == nil {
		return
	}
	ev := ports.LeadEvent{
		Type:           typ,
		TenantID:       lead.ClientID,
		Lead:           *lead,
		Score:          entity.Score(lead, w),
		PreviousStatus: prev,
		OccurredAt:     uc.now(),
	}
	if t, err := uc.tenants.GetByID(ctx, lead.ClientID); err == nil && t != nil {
		ev.TenantName = t.Name
	}
	uc.events.Publish(ev)
}

func sameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
