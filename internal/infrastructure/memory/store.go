// Package memory implementa los puertos de persistencia en memoria.
// Se usa con STORE_DRIVER=memory en desarrollo y como doble de pruebas.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

// ErrUnavailable simula un almacén caído (ver Store.SetFailing).
var ErrUnavailable = errors.New("memory: almacén no disponible")

// Store contenedor compartido por todos los repositorios en memoria.
type Store struct {
	mu         sync.RWMutex
	failing    bool
	tenants    map[string]*entity.Tenant
	users      map[string]*entity.User
	leads      map[string]*entity.Lead
	activities []*entity.Activity
	rotations  map[string]*entity.TeamRotation
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		tenants:   map[string]*entity.Tenant{},
		users:     map[string]*entity.User{},
		leads:     map[string]*entity.Lead{},
		rotations: map[string]*entity.TeamRotation{},
	}
}

// SetFailing hace que toda operación devuelva ErrUnavailable.
func (s *Store) SetFailing(v bool) {
	s.mu.Lock()
	s.failing = v
	s.mu.Unlock()
}

// Ping comprueba disponibilidad (health check).
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing {
		return ErrUnavailable
	}
	return nil
}

// Tenants repositorio de agencias.
func (s *Store) Tenants() *TenantRepo { return &TenantRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Leads repositorio de leads.
func (s *Store) Leads() *LeadRepo { return &LeadRepo{s: s} }

// Activities repositorio de actividades.
func (s *Store) Activities() *ActivityRepo { return &ActivityRepo{s: s} }

// Rotations repositorio de rotaciones.
func (s *Store) Rotations() *RotationRepo { return &RotationRepo{s: s} }

// ActivityCount total de actividades (para aserciones en pruebas).
func (s *Store) ActivityCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activities)
}

// ── Tenants ───────────────────────────────────────────────────────────────────

var _ repository.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implementación en memoria de TenantRepository.
type TenantRepo struct{ s *Store }

// Create persiste una agencia; el dominio es único.
func (r *TenantRepo) Create(_ context.Context, t *entity.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failing {
		return ErrUnavailable
	}
	for _, existing := range r.s.tenants {
		if strings.EqualFold(existing.Domain, t.Domain) {
			return domain.ErrDuplicate
		}
	}
	cp := *t
	r.s.tenants[t.ID] = &cp
	return nil
}

// GetByID obtiene una agencia por ID.
func (r *TenantRepo) GetByID(_ context.Context, id string) (*entity.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	if t, ok := r.s.tenants[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

// GetByDomain obtiene una agencia por dominio.
func (r *TenantRepo) GetByDomain(_ context.Context, d string) (*entity.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	for _, t := range r.s.tenants {
		if strings.EqualFold(t.Domain, d) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

// List agencias ordenadas por nombre.
func (r *TenantRepo) List(_ context.Context, limit, offset int) ([]*entity.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	out := make([]*entity.Tenant, 0, len(r.s.tenants))
	for _, t := range r.s.tenants {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

// ── Users ─────────────────────────────────────────────────────────────────────

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct{ s *Store }

// Create persiste un usuario; el email es único por agencia.
func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failing {
		return ErrUnavailable
	}
	for _, existing := range r.s.users {
		if existing.TenantID() == u.TenantID() && entity.NormalizeEmail(existing.Email) == entity.NormalizeEmail(u.Email) {
			return domain.ErrDuplicate
		}
	}
	r.s.users[u.ID] = copyUser(u)
	return nil
}

// GetByID obtiene un usuario por ID.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	if u, ok := r.s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

// FindByEmail primer usuario con ese email (orden de creación).
func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	key := entity.NormalizeEmail(email)
	var found *entity.User
	for _, u := range r.s.users {
		if entity.NormalizeEmail(u.Email) == key && (found == nil || u.CreatedAt.Before(found.CreatedAt)) {
			found = u
		}
	}
	if found == nil {
		return nil, nil
	}
	return copyUser(found), nil
}

// GetByEmailAndClient usuario por email dentro de una agencia.
func (r *UserRepo) GetByEmailAndClient(_ context.Context, email, clientID string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	key := entity.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.TenantID() == clientID && entity.NormalizeEmail(u.Email) == key {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

// ListByClient usuarios de la agencia ordenados por nombre.
func (r *UserRepo) ListByClient(_ context.Context, clientID, role string) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	var out []*entity.User
	for _, u := range r.s.users {
		if u.TenantID() != clientID || (role != "" && u.Role != role) {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName == out[j].FullName {
			return out[i].ID < out[j].ID
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

func copyUser(u *entity.User) *entity.User {
	cp := *u
	if u.ClientID != nil {
		c := *u.ClientID
		cp.ClientID = &c
	}
	return &cp
}

// ── Leads ─────────────────────────────────────────────────────────────────────

var _ repository.LeadRepository = (*LeadRepo)(nil)

// LeadRepo implementación en memoria de LeadRepository.
type LeadRepo struct{ s *Store }

// Create persiste un lead. Igual que el índice leads_client_email_key, un email
// repetido en la agencia devuelve domain.ErrDuplicate.
func (r *LeadRepo) Create(_ context.Context, l *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failing {
		return ErrUnavailable
	}
	if _, ok := r.s.leads[l.ID]; ok {
		return domain.ErrDuplicate
	}
	if r.emailTaken(l.ClientID, l.Email, l.ID) {
		return domain.ErrDuplicate
	}
	r.s.leads[l.ID] = copyLead(l)
	return nil
}

// GetByID lead de la agencia; nil si no existe o pertenece a otra agencia.
func (r *LeadRepo) GetByID(_ context.Context, clientID, id string) (*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	l, ok := r.s.leads[id]
	if !ok || l.ClientID != clientID {
		return nil, nil
	}
	return copyLead(l), nil
}

// FindByID lead por ID sin filtro de agencia.
func (r *LeadRepo) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	if l, ok := r.s.leads[id]; ok {
		return copyLead(l), nil
	}
	return nil, nil
}

// GetByEmail lead por email normalizado dentro de la agencia (el más antiguo).
func (r *LeadRepo) GetByEmail(_ context.Context, clientID, email string) (*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	key := entity.NormalizeEmail(email)
	var found *entity.Lead
	for _, l := range r.s.leads {
		if l.ClientID == clientID && entity.NormalizeEmail(l.Email) == key {
			if found == nil || l.CreatedAt.Before(found.CreatedAt) {
				found = l
			}
		}
	}
	if found == nil {
		return nil, nil
	}
	return copyLead(found), nil
}

// Update sobrescribe los campos mutables; client_id nunca cambia.
func (r *LeadRepo) Update(_ context.Context, l *entity.Lead) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failing {
		return ErrUnavailable
	}
	existing, ok := r.s.leads[l.ID]
	if !ok || existing.ClientID != l.ClientID {
		return domain.ErrNotFound
	}
	if r.emailTaken(existing.ClientID, l.Email, l.ID) {
		return domain.ErrDuplicate
	}
	cp := copyLead(l)
	cp.ClientID = existing.ClientID
	cp.CreatedAt = existing.CreatedAt
	r.s.leads[l.ID] = cp
	return nil
}

// emailTaken otro lead de la agencia con el mismo email normalizado. Requiere el lock.
func (r *LeadRepo) emailTaken(clientID, email, exceptID string) bool {
	key := entity.NormalizeEmail(email)
	for id, l := range r.s.leads {
		if id != exceptID && l.ClientID == clientID && entity.NormalizeEmail(l.Email) == key {
			return true
		}
	}
	return false
}

// List filtra, ordena por fecha de creación descendente y pagina.
func (r *LeadRepo) List(_ context.Context, f repository.LeadFilter) ([]*entity.Lead, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, 0, ErrUnavailable
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []*entity.Lead
	for _, l := range r.s.leads {
		if f.ClientID != nil && l.ClientID != *f.ClientID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Priority != "" && l.Priority != f.Priority {
			continue
		}
		if f.Source != "" && l.Source != f.Source {
			continue
		}
		if f.AssignedTo != "" && (l.AssignedTo == nil || *l.AssignedTo != f.AssignedTo) {
			continue
		}
		if search != "" && !matchesSearch(l, search) {
			continue
		}
		out = append(out, copyLead(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	total := len(out)
	return page(out, f.Limit, f.Offset), total, nil
}

func matchesSearch(l *entity.Lead, q string) bool {
	for _, v := range []string{l.FirstName, l.LastName, l.Company, l.Email} {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// AssignedBetween leads asignados a userID creados en [from, to] (días completos).
func (r *LeadRepo) AssignedBetween(_ context.Context, clientID, userID string, from, to time.Time) ([]*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	until := to.AddDate(0, 0, 1)
	var out []*entity.Lead
	for _, l := range r.s.leads {
		if l.ClientID != clientID || l.AssignedTo == nil || *l.AssignedTo != userID {
			continue
		}
		if l.CreatedAt.Before(from) || !l.CreatedAt.Before(until) {
			continue
		}
		out = append(out, copyLead(l))
	}
	return out, nil
}

// AggregateByStatus conteo y valor estimado por estado.
func (r *LeadRepo) AggregateByStatus(_ context.Context, clientID *string) ([]repository.LeadStatusAggregate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	agg := map[string]*repository.LeadStatusAggregate{}
	for _, l := range r.s.leads {
		if clientID != nil && l.ClientID != *clientID {
			continue
		}
		a, ok := agg[l.Status]
		if !ok {
			a = &repository.LeadStatusAggregate{Status: l.Status, Value: decimal.Zero}
			agg[l.Status] = a
		}
		a.Count++
		if l.EstimatedValue != nil {
			a.Value = a.Value.Add(*l.EstimatedValue)
		}
	}
	out := make([]repository.LeadStatusAggregate, 0, len(agg))
	for _, a := range agg {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func copyLead(l *entity.Lead) *entity.Lead {
	cp := *l
	if l.AssignedTo != nil {
		a := *l.AssignedTo
		cp.AssignedTo = &a
	}
	if l.EstimatedValue != nil {
		v := *l.EstimatedValue
		cp.EstimatedValue = &v
	}
	if l.ClosingProbability != nil {
		p := *l.ClosingProbability
		cp.ClosingProbability = &p
	}
	if l.Qualification != nil {
		q := *l.Qualification
		cp.Qualification = &q
	}
	if l.QualifiedAt != nil {
		t := *l.QualifiedAt
		cp.QualifiedAt = &t
	}
	return &cp
}

// ── Activities ────────────────────────────────────────────────────────────────

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo implementación en memoria de ActivityRepository.
type ActivityRepo struct{ s *Store }

// Create agrega una actividad.
func (r *ActivityRepo) Create(_ context.Context, a *entity.Activity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failing {
		return ErrUnavailable
	}
	cp := *a
	r.s.activities = append(r.s.activities, &cp)
	return nil
}

// ListByLead actividades del lead, más recientes primero.
func (r *ActivityRepo) ListByLead(_ context.Context, clientID, leadID string, limit int) ([]*entity.Activity, error) {
	return r.list(clientID, func(a *entity.Activity) bool {
		return a.LeadID != nil && *a.LeadID == leadID
	}, limit)
}

// ListByClient actividades de la agencia, más recientes primero.
func (r *ActivityRepo) ListByClient(_ context.Context, clientID string, limit int) ([]*entity.Activity, error) {
	return r.list(clientID, func(*entity.Activity) bool { return true }, limit)
}

func (r *ActivityRepo) list(clientID string, keep func(*entity.Activity) bool, limit int) ([]*entity.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	var out []*entity.Activity
	for i := len(r.s.activities) - 1; i >= 0; i-- {
		a := r.s.activities[i]
		if a.ClientID != clientID || !keep(a) {
			continue
		}
		cp := *a
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ── Rotations ─────────────────────────────────────────────────────────────────

var _ repository.RotationRepository = (*RotationRepo)(nil)

// RotationRepo implementación en memoria de RotationRepository.
type RotationRepo struct{ s *Store }

// Create persiste una rotación.
func (r *RotationRepo) Create(_ context.Context, rot *entity.TeamRotation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failing {
		return ErrUnavailable
	}
	cp := *rot
	r.s.rotations[rot.ID] = &cp
	return nil
}

// GetByID rotación de la agencia.
func (r *RotationRepo) GetByID(_ context.Context, clientID, id string) (*entity.TeamRotation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	rot, ok := r.s.rotations[id]
	if !ok || rot.ClientID != clientID {
		return nil, nil
	}
	cp := *rot
	return &cp, nil
}

// Update sobrescribe estado y fechas.
func (r *RotationRepo) Update(_ context.Context, rot *entity.TeamRotation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failing {
		return ErrUnavailable
	}
	existing, ok := r.s.rotations[rot.ID]
	if !ok || existing.ClientID != rot.ClientID {
		return domain.ErrNotFound
	}
	existing.IsActive = rot.IsActive
	existing.StartDate = rot.StartDate
	existing.EndDate = rot.EndDate
	existing.UpdatedAt = rot.UpdatedAt
	return nil
}

// List rotaciones filtradas, por fecha de inicio descendente.
func (r *RotationRepo) List(_ context.Context, f repository.RotationFilter) ([]*entity.TeamRotation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	var out []*entity.TeamRotation
	for _, rot := range r.s.rotations {
		if rot.ClientID != f.ClientID {
			continue
		}
		if f.RotationType != "" && rot.RotationType != f.RotationType {
			continue
		}
		if f.UserID != "" && rot.UserID != f.UserID {
			continue
		}
		if f.IsActive != nil && rot.IsActive != *f.IsActive {
			continue
		}
		cp := *rot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

// FindOverlapping rotaciones activas en conflicto con el rango.
func (r *RotationRepo) FindOverlapping(_ context.Context, clientID, userID, rotationType string, start, end time.Time, excludeID string) ([]*entity.TeamRotation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.failing {
		return nil, ErrUnavailable
	}
	var out []*entity.TeamRotation
	for _, rot := range r.s.rotations {
		if rot.ClientID != clientID || rot.ID == excludeID {
			continue
		}
		if rot.Conflicts(userID, rotationType, start, end) {
			cp := *rot
			out = append(out, &cp)
		}
	}
	return out, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
