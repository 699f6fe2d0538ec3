package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/validation"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/pkg/sanitize"
)

// QualifyPublic formulario público de seguimiento: identifica el lead solo por su id.
func (uc *LeadUseCase) QualifyPublic(ctx context.Context, in dto.QualifyRequest) (*dto.LeadResponse, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	q, err := decodeQualification(in.QualificationData)
	if err != nil {
		return nil, err
	}
	lead, err := uc.leads.FindByID(ctx, in.LeadID)
	if err != nil {
		return nil, fmt.Errorf("obtener lead: %w", err)
	}
	if lead == nil {
		return nil, domain.ErrNotFound
	}
	return uc.qualify(ctx, lead, q, nil)
}

// Qualify calificación desde el portal, dentro de la agencia del actor.
func (uc *LeadUseCase) Qualify(ctx context.Context, actor Actor, id string, data map[string]any) (*dto.LeadResponse, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	q, err := decodeQualification(data)
	if err != nil {
		return nil, err
	}
	lead, err := uc.load(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	return uc.qualify(ctx, lead, q, actor.userRef())
}

func (uc *LeadUseCase) qualify(ctx context.Context, lead *entity.Lead, q entity.Qualification, userID *string) (*dto.LeadResponse, error) {
	prev := lead.Status
	if !lead.Qualify(q, uc.now()) {
		return nil, fmt.Errorf("%w: el lead está en estado %s", domain.ErrInvalidTransition, prev)
	}
	if err := uc.leads.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("calificar lead: %w", err)
	}
	typ, desc := entity.ActivityNote, "Calificación actualizada"
	if prev != lead.Status {
		typ, desc = entity.ActivityStatusChange, fmt.Sprintf("Lead calificado (%s -> %s)", prev, lead.Status)
	}
	if err := uc.appendActivity(ctx, lead.ClientID, &lead.ID, userID, typ, desc,
		map[string]any{"from": prev, "to": lead.Status}); err != nil {
		return nil, err
	}
	w := newWeightCache(uc.tenants).get(ctx, lead.ClientID)
	uc.publish(ctx, ports.EventLeadQualified, lead, w, prev)
	resp := toLeadResponse(lead, w)
	return &resp, nil
}

// decodeQualification convierte el payload libre en Qualification. Claves desconocidas o
// tipos no convertibles son errores de validación; un payload vacío también.
func decodeQualification(data map[string]any) (entity.Qualification, error) {
	var q entity.Qualification
	ve := domain.NewValidationError()
	if len(data) == 0 {
		ve.Add("qualificationData", "es obligatorio")
		return q, ve
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &q,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return q, err
	}
	if err := dec.Decode(normalizeKeys(data)); err != nil {
		ve.Add("qualificationData", decodeMessage(err))
		return q, ve
	}
	q = sanitizeQualification(q)
	if q.IsEmpty() {
		ve.Add("qualificationData", "no contiene datos de calificación")
		return q, ve
	}
	return q, nil
}

func sanitizeQualification(q entity.Qualification) entity.Qualification {
	q.Industry = sanitize.Text(q.Industry)
	q.CompanySize = sanitize.Text(q.CompanySize)
	q.Position = sanitize.Text(q.Position)
	q.Budget = sanitize.Text(q.Budget)
	q.Timeline = sanitize.Text(q.Timeline)
	q.ExpectedROI = sanitize.Text(q.ExpectedROI)
	q.CurrentSolution = sanitize.Text(q.CurrentSolution)
	q.Notes = sanitize.Text(q.Notes)
	q.PainPoints = sanitizeList(q.PainPoints)
	q.Goals = sanitizeList(q.Goals)
	return q
}

func sanitizeList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = sanitize.Text(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// decodeMessage resume el error de mapstructure en una línea legible.
func decodeMessage(err error) string {
	if me, ok := err.(*mapstructure.Error); ok && len(me.Errors) > 0 {
		return strings.Join(me.Errors, "; ")
	}
	return err.Error()
}
