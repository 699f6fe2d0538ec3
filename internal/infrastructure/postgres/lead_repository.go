package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

var _ repository.LeadRepository = (*LeadRepo)(nil)

// LeadRepo leads sobre PostgreSQL. Toda consulta de un lead concreto lleva client_id salvo FindByID.
type LeadRepo struct {
	q Querier
}

// NewLeadRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLeadRepository(q Querier) *LeadRepo {
	return &LeadRepo{q: q}
}

const leadColumns = `id, client_id, first_name, last_name, company, email, phone, status, priority, source,
	assigned_to, estimated_value, closing_probability, notes, qualification, qualified_at, created_at, updated_at`

// Create inserta el lead. Un email repetido en la agencia devuelve domain.ErrDuplicate.
func (r *LeadRepo) Create(ctx context.Context, l *entity.Lead) error {
	const q = `
		INSERT INTO leads (id, client_id, first_name, last_name, company, email, email_key, phone, status,
			priority, source, assigned_to, estimated_value, closing_probability, notes, qualification,
			qualified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, q,
		l.ID, l.ClientID, l.FirstName, l.LastName, l.Company, l.Email, entity.NormalizeEmail(l.Email), l.Phone,
		l.Status, l.Priority, l.Source, l.AssignedTo, l.EstimatedValue, l.ClosingProbability, l.Notes,
		l.Qualification, l.QualifiedAt, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// GetByID lead de la agencia; (nil, nil) si no existe o es de otra agencia.
func (r *LeadRepo) GetByID(ctx context.Context, clientID, id string) (*entity.Lead, error) {
	return r.one(ctx, "get lead by id", `SELECT `+leadColumns+` FROM leads WHERE client_id = $1 AND id = $2`, clientID, id)
}

// FindByID sin filtro de agencia (formulario público de calificación).
func (r *LeadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	return r.one(ctx, "find lead by id", `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
}

// GetByEmail por email normalizado dentro de la agencia.
func (r *LeadRepo) GetByEmail(ctx context.Context, clientID, email string) (*entity.Lead, error) {
	return r.one(ctx, "get lead by email",
		`SELECT `+leadColumns+` FROM leads WHERE client_id = $1 AND email_key = $2`, clientID, entity.NormalizeEmail(email))
}

// Update reescribe los campos editables. client_id y created_at no cambian.
func (r *LeadRepo) Update(ctx context.Context, l *entity.Lead) error {
	const q = `
		UPDATE leads SET first_name = $3, last_name = $4, company = $5, email = $6, email_key = $7, phone = $8,
			status = $9, priority = $10, source = $11, assigned_to = $12, estimated_value = $13,
			closing_probability = $14, notes = $15, qualification = $16, qualified_at = $17, updated_at = $18
		WHERE client_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, q,
		l.ClientID, l.ID, l.FirstName, l.LastName, l.Company, l.Email, entity.NormalizeEmail(l.Email), l.Phone,
		l.Status, l.Priority, l.Source, l.AssignedTo, l.EstimatedValue, l.ClosingProbability, l.Notes,
		l.Qualification, l.QualifiedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra, ordena por creación descendente y pagina. Devuelve también el total sin paginar.
func (r *LeadRepo) List(ctx context.Context, f repository.LeadFilter) ([]*entity.Lead, int, error) {
	where, args := leadWhere(f)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	q := `SELECT ` + leadColumns + ` FROM leads` + where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	list, err := r.many(ctx, "list leads", q, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// AssignedBetween leads asignados a userID creados entre from y el final del día to.
func (r *LeadRepo) AssignedBetween(ctx context.Context, clientID, userID string, from, to time.Time) ([]*entity.Lead, error) {
	const q = `
		SELECT ` + leadColumns + ` FROM leads
		WHERE client_id = $1 AND assigned_to = $2 AND created_at >= $3 AND created_at < $4
		ORDER BY created_at`
	return r.many(ctx, "leads assigned between", q, clientID, userID, from, to.AddDate(0, 0, 1))
}

// AggregateByStatus conteo y suma de valor estimado por estado; clientID nil = todas las agencias.
func (r *LeadRepo) AggregateByStatus(ctx context.Context, clientID *string) ([]repository.LeadStatusAggregate, error) {
	const q = `
		SELECT status, count(*), COALESCE(sum(estimated_value), 0)
		FROM leads
		WHERE $1::uuid IS NULL OR client_id = $1
		GROUP BY status
		ORDER BY status`
	rows, err := r.q.Query(ctx, q, clientID)
	if err != nil {
		return nil, fmt.Errorf("aggregate leads: %w", err)
	}
	defer rows.Close()
	var out []repository.LeadStatusAggregate
	for rows.Next() {
		var a repository.LeadStatusAggregate
		var value decimal.Decimal
		if err := rows.Scan(&a.Status, &a.Count, &value); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		a.Value = value
		out = append(out, a)
	}
	return out, rows.Err()
}

// leadWhere arma el WHERE parametrizado del listado.
func leadWhere(f repository.LeadFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ClientID != nil {
		add("client_id = $%d", *f.ClientID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Priority != "" {
		add("priority = $%d", f.Priority)
	}
	if f.Source != "" {
		add("source = $%d", f.Source)
	}
	if f.AssignedTo != "" {
		add("assigned_to = $%d", f.AssignedTo)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR company ILIKE $%[1]d OR email ILIKE $%[1]d)", n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *LeadRepo) one(ctx context.Context, op, q string, args ...any) (*entity.Lead, error) {
	l, err := scanLead(r.q.QueryRow(ctx, q, args...))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func (r *LeadRepo) many(ctx context.Context, op, q string, args ...any) ([]*entity.Lead, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	list := []*entity.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func scanLead(row pgxScanner) (*entity.Lead, error) {
	var l entity.Lead
	err := row.Scan(
		&l.ID, &l.ClientID, &l.FirstName, &l.LastName, &l.Company, &l.Email, &l.Phone,
		&l.Status, &l.Priority, &l.Source, &l.AssignedTo, &l.EstimatedValue, &l.ClosingProbability,
		&l.Notes, &l.Qualification, &l.QualifiedAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
