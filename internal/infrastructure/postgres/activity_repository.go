package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo registro de auditoría (solo INSERT y SELECT).
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

const activityColumns = `id, client_id, lead_id, user_id, type, description, metadata, created_at`

// Create inserta la actividad.
func (r *ActivityRepo) Create(ctx context.Context, a *entity.Activity) error {
	meta := a.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO activities (`+activityColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ClientID, a.LeadID, a.UserID, a.Type, a.Description, meta, a.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListByLead historial del lead, más reciente primero. limit 0 = sin límite.
func (r *ActivityRepo) ListByLead(ctx context.Context, clientID, leadID string, limit int) ([]*entity.Activity, error) {
	const q = `SELECT ` + activityColumns + ` FROM activities
		WHERE client_id = $1 AND lead_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($3, 0)`
	return r.list(ctx, q, clientID, leadID, limit)
}

// ListByClient actividad de toda la agencia, más reciente primero.
func (r *ActivityRepo) ListByClient(ctx context.Context, clientID string, limit int) ([]*entity.Activity, error) {
	const q = `SELECT ` + activityColumns + ` FROM activities
		WHERE client_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT NULLIF($2, 0)`
	return r.list(ctx, q, clientID, limit)
}

func (r *ActivityRepo) list(ctx context.Context, q string, args ...any) ([]*entity.Activity, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()
	var list []*entity.Activity
	for rows.Next() {
		var a entity.Activity
		if err := rows.Scan(&a.ID, &a.ClientID, &a.LeadID, &a.UserID, &a.Type, &a.Description, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
