package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/validation"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// Ventana para considerar que una rotación activa "termina pronto".
const endingSoonWindow = 7 * 24 * time.Hour

// Motivos de una propuesta de calendario.
const (
	ScheduleContinuesCurrent = "continues_current"
	ScheduleStaggered        = "staggered"
)

// RotationUseCase rotaciones de equipo: alta con control de solapes, cambios de estado y
// fechas, listado con métricas y planificación (sin escrituras).
type RotationUseCase struct {
	rotations  repository.RotationRepository
	users      repository.UserRepository
	leads      repository.LeadRepository
	activities repository.ActivityRepository
	tenants    repository.TenantRepository
	log        *logger.Logger
	now        func() time.Time
}

// NewRotationUseCase construye el caso de uso.
func NewRotationUseCase(
	rotations repository.RotationRepository,
	users repository.UserRepository,
	leads repository.LeadRepository,
	activities repository.ActivityRepository,
	tenants repository.TenantRepository,
	log *logger.Logger,
) *RotationUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &RotationUseCase{
		rotations:  rotations,
		users:      users,
		leads:      leads,
		activities: activities,
		tenants:    tenants,
		log:        log.Component("rotation"),
		now:        time.Now,
	}
}

// Create alta de una rotación activa. Falla con ErrRotationOverlap si el mismo usuario ya
// tiene una rotación activa del mismo tipo que intersecta el rango.
func (uc *RotationUseCase) Create(ctx context.Context, actor Actor, in dto.CreateRotationRequest) (*dto.RotationResponse, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	start, _ := time.Parse(dto.DateLayout, in.StartDate)
	end, _ := time.Parse(dto.DateLayout, in.EndDate)
	ve := domain.NewValidationError()
	if !end.After(start) {
		ve.Add("end_date", "debe ser posterior a start_date")
	}
	user, err := uc.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("obtener usuario: %w", err)
	}
	if user == nil || !user.BelongsTo(actor.TenantID) {
		ve.Add("user_id", "el usuario no pertenece a la agencia")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}
	overlapping, err := uc.rotations.FindOverlapping(ctx, actor.TenantID, user.ID, in.RotationType, start, end, "")
	if err != nil {
		return nil, fmt.Errorf("buscar solapes: %w", err)
	}
	if len(overlapping) > 0 {
		return nil, domain.ErrRotationOverlap
	}

	now := uc.now().UTC()
	rot := &entity.TeamRotation{
		ID:           uuid.New().String(),
		ClientID:     actor.TenantID,
		UserID:       user.ID,
		RotationType: in.RotationType,
		StartDate:    entity.Day(start),
		EndDate:      entity.Day(end),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.rotations.Create(ctx, rot); err != nil {
		return nil, fmt.Errorf("crear rotación: %w", err)
	}
	if err := uc.audit(ctx, actor, rot, "created", fmt.Sprintf("Rotación %s creada para %s (%s a %s)",
		rot.RotationType, user.FullName, in.StartDate, in.EndDate)); err != nil {
		return nil, err
	}
	resp := uc.toResponse(rot, user.FullName, uc.today(ctx, actor.TenantID))
	return &resp, nil
}

// Update activa/desactiva o extiende la fecha de fin. Si la rotación queda activa con un rango
// nuevo se vuelve a comprobar el solape excluyéndose a sí misma.
func (uc *RotationUseCase) Update(ctx context.Context, actor Actor, id string, in dto.UpdateRotationRequest) (*dto.RotationResponse, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.IsActive == nil && in.EndDate == nil {
		ve := domain.NewValidationError()
		ve.Add("body", "no hay campos para actualizar")
		return nil, ve
	}
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	rot, err := uc.rotations.GetByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, fmt.Errorf("obtener rotación: %w", err)
	}
	if rot == nil {
		return nil, domain.ErrNotFound
	}

	changes := map[string]any{}
	end := rot.EndDate
	if in.EndDate != nil {
		parsed, _ := time.Parse(dto.DateLayout, *in.EndDate)
		parsed = entity.Day(parsed)
		if !parsed.After(rot.StartDate) {
			ve := domain.NewValidationError()
			ve.Add("end_date", "debe ser posterior a start_date")
			return nil, ve
		}
		// Solo se extiende: para acortar una rotación se desactiva y se crea otra.
		if parsed.Before(rot.EndDate) {
			ve := domain.NewValidationError()
			ve.Add("end_date", "solo se puede extender: no puede ser anterior a "+rot.EndDate.Format(dto.DateLayout))
			return nil, ve
		}
		if !parsed.Equal(rot.EndDate) {
			changes["end_date"] = map[string]string{"from": rot.EndDate.Format(dto.DateLayout), "to": parsed.Format(dto.DateLayout)}
			end = parsed
		}
	}
	active := rot.IsActive
	if in.IsActive != nil && *in.IsActive != rot.IsActive {
		changes["is_active"] = map[string]bool{"from": rot.IsActive, "to": *in.IsActive}
		active = *in.IsActive
	}
	if len(changes) == 0 {
		resp := uc.toResponse(rot, uc.userName(ctx, rot.UserID), uc.today(ctx, actor.TenantID))
		return &resp, nil
	}
	if active {
		overlapping, err := uc.rotations.FindOverlapping(ctx, actor.TenantID, rot.UserID, rot.RotationType, rot.StartDate, end, rot.ID)
		if err != nil {
			return nil, fmt.Errorf("buscar solapes: %w", err)
		}
		if len(overlapping) > 0 {
			return nil, domain.ErrRotationOverlap
		}
	}
	rot.EndDate = end
	rot.IsActive = active
	rot.UpdatedAt = uc.now().UTC()
	if err := uc.rotations.Update(ctx, rot); err != nil {
		return nil, fmt.Errorf("actualizar rotación: %w", err)
	}
	if err := uc.audit(ctx, actor, rot, "updated", "Rotación actualizada", changes); err != nil {
		return nil, err
	}
	resp := uc.toResponse(rot, uc.userName(ctx, rot.UserID), uc.today(ctx, actor.TenantID))
	return &resp, nil
}

// List rotaciones filtradas con estadísticas y, para las activas, el desempeño del agente
// dentro de la ventana de la rotación.
func (uc *RotationUseCase) List(ctx context.Context, tenantID string, in dto.RotationListRequest) (*dto.RotationListResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrNoTenant
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	filter := repository.RotationFilter{ClientID: tenantID, RotationType: in.RotationType, UserID: in.UserID}
	if in.Active != "" {
		active := in.Active == "true"
		filter.IsActive = &active
	}
	list, err := uc.rotations.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar rotaciones: %w", err)
	}
	names, err := uc.rosterNames(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	today := uc.today(ctx, tenantID)
	out := &dto.RotationListResponse{
		Rotations: make([]dto.RotationResponse, 0, len(list)),
		Stats:     dto.RotationStats{Total: len(list), ByType: map[string]int{entity.Rotation30Days: 0, entity.Rotation90Days: 0}},
	}
	for _, rot := range list {
		out.Stats.ByType[rot.RotationType]++
		resp := uc.toResponse(rot, names[rot.UserID], today)
		if rot.IsActive {
			out.Stats.Active++
			if rot.EndsWithin(today, endingSoonWindow) {
				out.Stats.EndingSoon++
			}
			perf, err := uc.performance(ctx, rot)
			if err != nil {
				return nil, err
			}
			resp.Performance = perf
		}
		out.Rotations = append(out.Rotations, resp)
	}
	return out, nil
}

// Schedule propone un calendario por agente sin persistir nada. Si el agente tiene una
// rotación activa vigente del tipo, la nueva empieza el día siguiente a su fin; si no, los
// inicios se escalonan una semana por posición en el roster.
func (uc *RotationUseCase) Schedule(ctx context.Context, tenantID string, in dto.ScheduleRequest) (*dto.ScheduleResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrNoTenant
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	agents, err := uc.users.ListByClient(ctx, tenantID, entity.RoleAgent)
	if err != nil {
		return nil, fmt.Errorf("listar agentes: %w", err)
	}
	active := true
	current, err := uc.rotations.List(ctx, repository.RotationFilter{ClientID: tenantID, RotationType: in.RotationType, IsActive: &active})
	if err != nil {
		return nil, fmt.Errorf("listar rotaciones: %w", err)
	}
	today := uc.today(ctx, tenantID)
	latestEnd := map[string]time.Time{}
	for _, r := range current {
		if r.EndDate.Before(today) {
			continue
		}
		if prev, ok := latestEnd[r.UserID]; !ok || r.EndDate.After(prev) {
			latestEnd[r.UserID] = r.EndDate
		}
	}
	days := entity.RotationDays(in.RotationType)
	out := &dto.ScheduleResponse{RotationType: in.RotationType, Proposals: make([]dto.ScheduleProposal, 0, len(agents))}
	for i, a := range agents {
		start, reason := today.AddDate(0, 0, i*7), ScheduleStaggered
		if end, ok := latestEnd[a.ID]; ok {
			start, reason = end.AddDate(0, 0, 1), ScheduleContinuesCurrent
		}
		out.Proposals = append(out.Proposals, dto.ScheduleProposal{
			UserID:    a.ID,
			FullName:  a.FullName,
			StartDate: start.Format(dto.DateLayout),
			EndDate:   start.AddDate(0, 0, days).Format(dto.DateLayout),
			Reason:    reason,
		})
	}
	return out, nil
}

// Team usuarios de la agencia ordenados por nombre.
func (uc *RotationUseCase) Team(ctx context.Context, tenantID string) ([]dto.TeamMemberResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrNoTenant
	}
	users, err := uc.users.ListByClient(ctx, tenantID, "")
	if err != nil {
		return nil, fmt.Errorf("listar equipo: %w", err)
	}
	out := make([]dto.TeamMemberResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.TeamMemberResponse{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role})
	}
	return out, nil
}

func (uc *RotationUseCase) performance(ctx context.Context, rot *entity.TeamRotation) (*dto.RotationPerformance, error) {
	leads, err := uc.leads.AssignedBetween(ctx, rot.ClientID, rot.UserID, rot.StartDate, rot.EndDate)
	if err != nil {
		return nil, fmt.Errorf("desempeño de rotación: %w", err)
	}
	p := &dto.RotationPerformance{LeadsAssigned: len(leads), Revenue: decimal.Zero}
	for _, l := range leads {
		if l.Status != entity.LeadStatusClosed {
			continue
		}
		p.LeadsClosed++
		if l.EstimatedValue != nil {
			p.Revenue = p.Revenue.Add(*l.EstimatedValue)
		}
	}
	p.ConversionRate = conversionRate(p.LeadsClosed, p.LeadsAssigned)
	return p, nil
}

func (uc *RotationUseCase) toResponse(rot *entity.TeamRotation, name string, today time.Time) dto.RotationResponse {
	resp := dto.RotationResponse{
		ID:           rot.ID,
		UserID:       rot.UserID,
		UserName:     name,
		RotationType: rot.RotationType,
		StartDate:    rot.StartDate.Format(dto.DateLayout),
		EndDate:      rot.EndDate.Format(dto.DateLayout),
		IsActive:     rot.IsActive,
		CreatedAt:    rot.CreatedAt,
	}
	if rot.IsActive && !rot.EndDate.Before(today) {
		resp.DaysRemaining = int(rot.EndDate.Sub(today).Hours() / 24)
	}
	return resp
}

// today día calendario actual en la zona horaria de la agencia.
func (uc *RotationUseCase) today(ctx context.Context, tenantID string) time.Time {
	loc := time.UTC
	if t, err := uc.tenants.GetByID(ctx, tenantID); err == nil && t != nil {
		loc = t.Settings.Location()
	}
	return entity.Day(uc.now().In(loc))
}

func (uc *RotationUseCase) userName(ctx context.Context, userID string) string {
	u, err := uc.users.GetByID(ctx, userID)
	if err != nil || u == nil {
		return ""
	}
	return u.FullName
}

func (uc *RotationUseCase) rosterNames(ctx context.Context, tenantID string) (map[string]string, error) {
	users, err := uc.users.ListByClient(ctx, tenantID, "")
	if err != nil {
		return nil, fmt.Errorf("listar equipo: %w", err)
	}
	out := make(map[string]string, len(users))
	for _, u := range users {
		out[u.ID] = u.FullName
	}
	return out, nil
}

// audit nota de agencia (sin lead) con los datos de la rotación.
func (uc *RotationUseCase) audit(ctx context.Context, actor Actor, rot *entity.TeamRotation, action, desc string, extra ...map[string]any) error {
	meta := map[string]any{
		"action":        "rotation_" + action,
		"rotation_id":   rot.ID,
		"user_id":       rot.UserID,
		"rotation_type": rot.RotationType,
		"start_date":    rot.StartDate.Format(dto.DateLayout),
		"end_date":      rot.EndDate.Format(dto.DateLayout),
		"is_active":     rot.IsActive,
	}
	for _, e := range extra {
		for k, v := range e {
			meta["changes_"+k] = v
		}
	}
	err := uc.activities.Create(ctx, &entity.Activity{
		ID:          uuid.New().String(),
		ClientID:    actor.TenantID,
		UserID:      actor.userRef(),
		Type:        entity.ActivityNote,
		Description: desc,
		Metadata:    meta,
		CreatedAt:   uc.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("registrar actividad de rotación: %w", err)
	}
	return nil
}
