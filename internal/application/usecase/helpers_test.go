package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/memory"
)

const (
	tenantA  = "a0000000-0000-4000-8000-000000000001"
	tenantB  = "b0000000-0000-4000-8000-000000000001"
	managerA = "a0000000-0000-4000-8000-0000000000c1"
	agentA1  = "a0000000-0000-4000-8000-0000000000a1"
	agentA2  = "a0000000-0000-4000-8000-0000000000a2"
	agentB1  = "b0000000-0000-4000-8000-0000000000b1"
)

// events fake de ports.EventPublisher que guarda lo publicado.
type events struct {
	mu  sync.Mutex
	got []ports.LeadEvent
}

func (e *events) Publish(ev ports.LeadEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, ev)
}

func (e *events) types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.got))
	for _, ev := range e.got {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store  *memory.Store
	events *events
	ctx    context.Context
}

func actorA() usecase.Actor { return usecase.Actor{TenantID: tenantA, UserID: managerA} }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), events: &events{}, ctx: context.Background()}
	now := time.Now().UTC()
	for _, tn := range []*entity.Tenant{
		{ID: tenantA, Name: "Agencia A", Domain: "agencia-a.pl", Settings: entity.DefaultTenantSettings(), CreatedAt: now},
		{ID: tenantB, Name: "Agencia B", Domain: "agencia-b.pl", Settings: entity.DefaultTenantSettings(), CreatedAt: now},
	} {
		require.NoError(t, f.store.Tenants().Create(f.ctx, tn))
	}
	a, b := tenantA, tenantB
	for _, u := range []*entity.User{
		{ID: managerA, ClientID: &a, Email: "manager@agencia-a.pl", FullName: "Marta Manager", Role: entity.RoleManager},
		{ID: agentA1, ClientID: &a, Email: "adam@agencia-a.pl", FullName: "Adam Agent", Role: entity.RoleAgent},
		{ID: agentA2, ClientID: &a, Email: "beata@agencia-a.pl", FullName: "Beata Agent", Role: entity.RoleAgent},
		{ID: agentB1, ClientID: &b, Email: "bob@agencia-b.pl", FullName: "Bob Agent", Role: entity.RoleAgent},
	} {
		u.CreatedAt = now
		require.NoError(t, f.store.Users().Create(f.ctx, u))
	}
	return f
}

func (f *fixture) leadUC() *usecase.LeadUseCase {
	return usecase.NewLeadUseCase(f.store.Leads(), f.store.Activities(), f.store.Users(), f.store.Tenants(), f.events, nil)
}

// seedLead inserta un lead directamente en el almacén.
func (f *fixture) seedLead(t *testing.T, id, tenant, email, status string) *entity.Lead {
	t.Helper()
	now := time.Now().UTC()
	l := &entity.Lead{
		ID: id, ClientID: tenant, FirstName: "Lead", Company: "Acme", Email: email,
		Status: status, Priority: entity.PriorityMedium, Source: entity.SourceWebsite,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.store.Leads().Create(f.ctx, l))
	return l
}
