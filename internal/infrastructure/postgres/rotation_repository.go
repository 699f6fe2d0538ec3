package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

var _ repository.RotationRepository = (*RotationRepo)(nil)

// RotationRepo rotaciones de equipo. No existe DELETE: se desactivan.
type RotationRepo struct {
	q Querier
}

// NewRotationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRotationRepository(q Querier) *RotationRepo {
	return &RotationRepo{q: q}
}

const rotationColumns = `id, client_id, user_id, rotation_type, start_date, end_date, is_active, created_at, updated_at`

// Create inserta la rotación.
func (r *RotationRepo) Create(ctx context.Context, rot *entity.TeamRotation) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO team_rotations (`+rotationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rot.ID, rot.ClientID, rot.UserID, rot.RotationType, rot.StartDate, rot.EndDate, rot.IsActive,
		rot.CreatedAt, rot.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert rotation: %w", err)
	}
	return nil
}

// GetByID rotación de la agencia; (nil, nil) si no existe.
func (r *RotationRepo) GetByID(ctx context.Context, clientID, id string) (*entity.TeamRotation, error) {
	rot, err := scanRotation(r.q.QueryRow(ctx,
		`SELECT `+rotationColumns+` FROM team_rotations WHERE client_id = $1 AND id = $2`, clientID, id))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get rotation: %w", err)
	}
	return rot, nil
}

// Update fecha de fin y estado.
func (r *RotationRepo) Update(ctx context.Context, rot *entity.TeamRotation) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE team_rotations SET end_date = $3, is_active = $4, updated_at = $5
		WHERE client_id = $1 AND id = $2`,
		rot.ClientID, rot.ID, rot.EndDate, rot.IsActive, rot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update rotation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List rotaciones filtradas, por fecha de inicio descendente.
func (r *RotationRepo) List(ctx context.Context, f repository.RotationFilter) ([]*entity.TeamRotation, error) {
	const q = `
		SELECT ` + rotationColumns + ` FROM team_rotations
		WHERE client_id = $1
		  AND ($2::text = '' OR rotation_type = $2)
		  AND ($3::text = '' OR user_id = NULLIF($3, '')::uuid)
		  AND ($4::boolean IS NULL OR is_active = $4)
		ORDER BY start_date DESC, id`
	return r.list(ctx, q, f.ClientID, f.RotationType, f.UserID, f.IsActive)
}

// FindOverlapping activas del mismo (agencia, usuario, tipo) cuyo rango intersecta [start, end].
func (r *RotationRepo) FindOverlapping(ctx context.Context, clientID, userID, rotationType string, start, end time.Time, excludeID string) ([]*entity.TeamRotation, error) {
	const q = `
		SELECT ` + rotationColumns + ` FROM team_rotations
		WHERE client_id = $1 AND user_id = $2 AND rotation_type = $3 AND is_active
		  AND start_date <= $5 AND end_date >= $4
		  AND ($6::text = '' OR id <> NULLIF($6, '')::uuid)`
	return r.list(ctx, q, clientID, userID, rotationType, start, end, excludeID)
}

func (r *RotationRepo) list(ctx context.Context, q string, args ...any) ([]*entity.TeamRotation, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rotations: %w", err)
	}
	defer rows.Close()
	var list []*entity.TeamRotation
	for rows.Next() {
		rot, err := scanRotation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rotation: %w", err)
		}
		list = append(list, rot)
	}
	return list, rows.Err()
}

func scanRotation(row pgxScanner) (*entity.TeamRotation, error) {
	var rot entity.TeamRotation
	err := row.Scan(&rot.ID, &rot.ClientID, &rot.UserID, &rot.RotationType, &rot.StartDate, &rot.EndDate,
		&rot.IsActive, &rot.CreatedAt, &rot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rot, nil
}
