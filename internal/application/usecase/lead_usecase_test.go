package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

const (
	leadA1 = "a0000000-0000-4000-8000-00000000f001"
	leadA2 = "a0000000-0000-4000-8000-00000000f002"
	leadB1 = "b0000000-0000-4000-8000-00000000f001"
)

func strp(s string) *string { return &s }

// ── Create ───────────────────────────────────────────────────────────────────

func TestCreate_ForzaLaAgenciaDelActor(t *testing.T) {
	f := newFixture(t)
	out, err := f.leadUC().Create(f.ctx, actorA(), dto.CreateLeadRequest{
		ClientID:  tenantB,
		FirstName: "Jan",
		Company:   "Acme",
		Email:     "jan@acme.pl",
	})
	require.NoError(t, err)
	assert.Equal(t, tenantA, out.ClientID)
	assert.Equal(t, entity.LeadStatusNew, out.Status)
	assert.Equal(t, entity.PriorityMedium, out.Priority)
	assert.Equal(t, entity.SourceManual, out.Source)
	assert.Equal(t, 10, out.ClosingProbability)
	assert.Equal(t, 1, f.store.ActivityCount())
	assert.Equal(t, []string{ports.EventLeadCreated}, f.events.types())

	stored, err := f.store.Leads().GetByID(f.ctx, tenantB, out.ID)
	require.NoError(t, err)
	assert.Nil(t, stored, "no debe existir en la agencia B")
}

func TestCreate_SinAgencia(t *testing.T) {
	f := newFixture(t)
	_, err := f.leadUC().Create(f.ctx, usecase.Actor{UserID: managerA}, dto.CreateLeadRequest{FirstName: "Jan", Company: "Acme", Email: "jan@acme.pl"})
	assert.ErrorIs(t, err, domain.ErrNoTenant)
}

func TestCreate_ValidacionYDuplicado(t *testing.T) {
	f := newFixture(t)
	_, err := f.leadUC().Create(f.ctx, actorA(), dto.CreateLeadRequest{FirstName: "J", Email: "no-email"})
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "first_name")
	assert.Contains(t, ve.Fields, "company")
	assert.Contains(t, ve.Fields, "email")

	f.seedLead(t, leadA1, tenantA, "jan@acme.pl", entity.LeadStatusNew)
	_, err = f.leadUC().Create(f.ctx, actorA(), dto.CreateLeadRequest{FirstName: "Jan", Company: "Acme", Email: "JAN@acme.pl"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreate_AsignadoDeOtraAgencia(t *testing.T) {
	f := newFixture(t)
	_, err := f.leadUC().Create(f.ctx, actorA(), dto.CreateLeadRequest{
		FirstName: "Jan", Company: "Acme", Email: "jan@acme.pl", AssignedTo: agentB1,
	})
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "assigned_to")
}

// ── Get / List ───────────────────────────────────────────────────────────────

func TestGet_OtraAgenciaEsNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadB1, tenantB, "b@beta.pl", entity.LeadStatusNew)

	_, err := f.leadUC().Get(f.ctx, tenantA, leadB1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.leadUC().Get(f.ctx, tenantA, "no-es-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestList_SoloLaAgencia(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)
	f.seedLead(t, leadA2, tenantA, "a2@acme.pl", entity.LeadStatusContacted)
	f.seedLead(t, leadB1, tenantB, "b@beta.pl", entity.LeadStatusNew)

	out, err := f.leadUC().List(f.ctx, tenantA, dto.LeadListRequest{ClientID: tenantB})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Page.Total)
	for _, l := range out.Items {
		assert.Equal(t, tenantA, l.ClientID)
	}

	out, err = f.leadUC().List(f.ctx, tenantA, dto.LeadListRequest{Status: entity.LeadStatusContacted})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, leadA2, out.Items[0].ID)

	all, err := f.leadUC().ListAll(f.ctx, dto.LeadListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Page.Total)
}

// ── Update ───────────────────────────────────────────────────────────────────

func TestUpdate_CambioDeEstadoRegistraActividad(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)

	out, err := f.leadUC().Update(f.ctx, actorA(), leadA1, dto.UpdateLeadRequest{Status: strp(entity.LeadStatusContacted)})
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatusContacted, out.Status)

	acts, err := f.store.Activities().ListByLead(f.ctx, tenantA, leadA1, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, entity.ActivityStatusChange, acts[0].Type)
	assert.Equal(t, entity.LeadStatusNew, acts[0].Metadata["from"])
	assert.Equal(t, entity.LeadStatusContacted, acts[0].Metadata["to"])
	assert.Equal(t, []string{ports.EventLeadStatusChanged}, f.events.types())
}

func TestUpdate_MismoEstadoSinActividad(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)

	_, err := f.leadUC().Update(f.ctx, actorA(), leadA1, dto.UpdateLeadRequest{Status: strp(entity.LeadStatusNew)})
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.ActivityCount())
	assert.Empty(t, f.events.types())
}

func TestUpdate_DesdeTerminalRechazado(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusLost)

	_, err := f.leadUC().Update(f.ctx, actorA(), leadA1, dto.UpdateLeadRequest{
		Status:   strp(entity.LeadStatusNew),
		Priority: strp(entity.PriorityHigh),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, _ := f.store.Leads().GetByID(f.ctx, tenantA, leadA1)
	assert.Equal(t, entity.LeadStatusLost, stored.Status)
	assert.Equal(t, entity.PriorityMedium, stored.Priority, "sin aplicación parcial")
}

func TestUpdate_ErrorDeValidacionNoAplicaNada(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)
	neg := decimal.NewFromInt(-5)

	_, err := f.leadUC().Update(f.ctx, actorA(), leadA1, dto.UpdateLeadRequest{
		Status:         strp(entity.LeadStatusContacted),
		EstimatedValue: &neg,
	})
	_, ok := domain.AsValidation(err)
	require.True(t, ok)

	stored, _ := f.store.Leads().GetByID(f.ctx, tenantA, leadA1)
	assert.Equal(t, entity.LeadStatusNew, stored.Status)
	assert.Equal(t, 0, f.store.ActivityCount())
}

func TestUpdate_OtraAgencia(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadB1, tenantB, "b@beta.pl", entity.LeadStatusNew)

	_, err := f.leadUC().Update(f.ctx, actorA(), leadB1, dto.UpdateLeadRequest{Status: strp(entity.LeadStatusLost)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	stored, _ := f.store.Leads().GetByID(f.ctx, tenantB, leadB1)
	assert.Equal(t, entity.LeadStatusNew, stored.Status)
}

func TestUpdate_CierreFijaProbabilidad(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusProposal)
	p := 30
	out, err := f.leadUC().Update(f.ctx, actorA(), leadA1, dto.UpdateLeadRequest{
		Status: strp(entity.LeadStatusClosed), ClosingProbability: &p,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, out.ClosingProbability)
}

// ── Assign / Priority ────────────────────────────────────────────────────────

func TestAssign_MismaAgencia(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)

	out, err := f.leadUC().Assign(f.ctx, actorA(), leadA1, dto.AssignLeadRequest{AssignedTo: agentA1})
	require.NoError(t, err)
	require.NotNil(t, out.AssignedTo)
	assert.Equal(t, agentA1, *out.AssignedTo)
	assert.Equal(t, []string{ports.EventLeadAssigned}, f.events.types())

	out, err = f.leadUC().Assign(f.ctx, actorA(), leadA1, dto.AssignLeadRequest{})
	require.NoError(t, err)
	assert.Nil(t, out.AssignedTo)
	assert.Equal(t, 2, f.store.ActivityCount())
}

func TestAssign_OtraAgenciaRechazado(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)

	_, err := f.leadUC().Assign(f.ctx, actorA(), leadA1, dto.AssignLeadRequest{AssignedTo: agentB1})
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "assigned_to")

	stored, _ := f.store.Leads().GetByID(f.ctx, tenantA, leadA1)
	assert.Nil(t, stored.AssignedTo)
}

func TestUpdatePriority(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)

	out, err := f.leadUC().UpdatePriority(f.ctx, actorA(), leadA1, dto.UpdatePriorityRequest{Priority: entity.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, entity.PriorityHigh, out.Priority)

	_, err = f.leadUC().UpdatePriority(f.ctx, actorA(), leadA1, dto.UpdatePriorityRequest{Priority: "urgent"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Stats ────────────────────────────────────────────────────────────────────

func TestStats_SinLeads(t *testing.T) {
	f := newFixture(t)
	a := tenantA
	out, err := f.leadUC().Stats(f.ctx, &a)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Total)
	assert.True(t, out.ConversionRate.IsZero())
}

func TestStats_ValoresYConversion(t *testing.T) {
	f := newFixture(t)
	set := func(l *entity.Lead, v int64) {
		d := decimal.NewFromInt(v)
		l.EstimatedValue = &d
		require.NoError(t, f.store.Leads().Update(f.ctx, l))
	}
	set(f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusClosed), 1000)
	set(f.seedLead(t, leadA2, tenantA, "a2@acme.pl", entity.LeadStatusProposal), 400)
	f.seedLead(t, "a0000000-0000-4000-8000-00000000f003", tenantA, "a3@acme.pl", entity.LeadStatusLost)
	set(f.seedLead(t, leadB1, tenantB, "b@beta.pl", entity.LeadStatusClosed), 9999)

	a := tenantA
	out, err := f.leadUC().Stats(f.ctx, &a)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 1, out.Closed)
	assert.Equal(t, 1, out.Lost)
	assert.Equal(t, "400", out.PipelineValue.String())
	assert.Equal(t, "1000", out.WonValue.String())
	assert.Equal(t, "33.33", out.ConversionRate.StringFixed(2))

	global, err := f.leadUC().Stats(f.ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, global.Total)
	assert.Equal(t, "50", global.ConversionRate.String())
}

// ── Activities ───────────────────────────────────────────────────────────────

func TestActivities_CrearYListar(t *testing.T) {
	f := newFixture(t)
	f.seedLead(t, leadA1, tenantA, "a1@acme.pl", entity.LeadStatusNew)
	uc := f.leadUC()

	a, err := uc.AddActivity(f.ctx, actorA(), leadA1, dto.CreateActivityRequest{
		Type: entity.ActivityCall, Description: "Llamada <b>inicial</b>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Llamada inicial", a.Description)
	require.NotNil(t, a.UserID)
	assert.Equal(t, managerA, *a.UserID)

	_, err = uc.AddActivity(f.ctx, actorA(), leadA1, dto.CreateActivityRequest{Type: entity.ActivityStatusChange, Description: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "status_change no se registra a mano")

	list, err := uc.ListActivities(f.ctx, tenantA, leadA1, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.ListActivities(f.ctx, tenantB, leadA1, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
