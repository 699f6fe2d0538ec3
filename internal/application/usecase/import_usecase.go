package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/validation"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
	"github.com/jhoicas/agencia-leads-api/pkg/sanitize"
)

// Límites de importación.
const (
	MaxImportRows  = 5000
	MaxImportBytes = 5 << 20
)

// ImportErrDuplicate mensaje por fila cuando el email ya existe y no se omiten duplicados.
const ImportErrDuplicate = "duplicate"

// ImportUseCase importación masiva de leads. No es transaccional: cada fila se procesa por
// separado y los errores se reportan por fila sin abortar el lote.
type ImportUseCase struct {
	leads      repository.LeadRepository
	activities repository.ActivityRepository
	csv        ports.CSVCodec
	log        *logger.Logger
	now        func() time.Time
}

// NewImportUseCase construye el caso de uso.
func NewImportUseCase(leads repository.LeadRepository, activities repository.ActivityRepository, csv ports.CSVCodec, log *logger.Logger) *ImportUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportUseCase{
		leads:      leads,
		activities: activities,
		csv:        csv,
		log:        log.Component("import"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Import procesa las filas en orden. Al final agrega una actividad resumen sin lead.
func (uc *ImportUseCase) Import(ctx context.Context, actor Actor, in dto.ImportRequest) (*dto.ImportResult, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	skip := in.SkipDuplicatesOrDefault()
	res := &dto.ImportResult{Total: len(in.Leads), Errors: []dto.ImportRowError{}}

	for i, raw := range in.Leads {
		rowNum := i + 1
		fail := func(msg string) {
			res.Errors = append(res.Errors, dto.ImportRowError{Row: rowNum, Error: msg, Data: raw})
		}
		row, err := decodeImportRow(raw)
		if err != nil {
			fail(rowErrorMessage(err))
			continue
		}
		existing, err := uc.leads.GetByEmail(ctx, actor.TenantID, row.Email)
		if err != nil {
			uc.log.Warn().Err(err).Int("row", rowNum).Msg("importación: error de almacenamiento")
			fail("error de almacenamiento")
			continue
		}
		switch {
		case existing != nil && in.UpdateExisting:
			if msg := uc.updateExisting(ctx, actor, existing, row, rowNum); msg != "" {
				fail(msg)
				continue
			}
			res.Updated++
		case existing != nil && skip:
			res.Skipped++
		case existing != nil:
			fail(ImportErrDuplicate)
		default:
			if msg := uc.insert(ctx, actor, row, rowNum); msg != "" {
				fail(msg)
				continue
			}
			res.Imported++
		}
	}

	summary := &entity.Activity{
		ID:       uuid.New().String(),
		ClientID: actor.TenantID,
		UserID:   actor.userRef(),
		Type:     entity.ActivityNote,
		Description: fmt.Sprintf("Importación: %d importados, %d actualizados, %d omitidos, %d errores",
			res.Imported, res.Updated, res.Skipped, len(res.Errors)),
		Metadata: map[string]any{
			"action":   "import",
			"total":    res.Total,
			"imported": res.Imported,
			"updated":  res.Updated,
			"skipped":  res.Skipped,
			"errors":   len(res.Errors),
		},
		CreatedAt: uc.now(),
	}
	if err := uc.activities.Create(ctx, summary); err != nil {
		uc.log.Error().Err(err).Str("client_id", actor.TenantID).Msg("importación: no se registró el resumen")
	}
	uc.log.Info().
		Str("client_id", actor.TenantID).
		Int("total", res.Total).
		Int("imported", res.Imported).
		Int("updated", res.Updated).
		Int("skipped", res.Skipped).
		Int("errors", len(res.Errors)).
		Msg("importación finalizada")
	return res, nil
}

func (uc *ImportUseCase) insert(ctx context.Context, actor Actor, row dto.ImportRow, rowNum int) string {
	now := uc.now()
	lead := &entity.Lead{
		ID:        uuid.New().String(),
		ClientID:  actor.TenantID,
		Status:    entity.LeadStatusNew,
		Priority:  entity.PriorityMedium,
		Source:    entity.SourceImport,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if msg := applyImportRow(lead, row, now); msg != "" {
		return msg
	}
	if err := uc.leads.Create(ctx, lead); err != nil {
		uc.log.Warn().Err(err).Int("row", rowNum).Msg("importación: crear lead")
		return "error de almacenamiento"
	}
	uc.note(ctx, actor, lead.ID, "Lead importado", rowNum)
	return ""
}

func (uc *ImportUseCase) updateExisting(ctx context.Context, actor Actor, lead *entity.Lead, row dto.ImportRow, rowNum int) string {
	now := uc.now()
	if msg := applyImportRow(lead, row, now); msg != "" {
		return msg
	}
	lead.UpdatedAt = now
	if err := uc.leads.Update(ctx, lead); err != nil {
		uc.log.Warn().Err(err).Int("row", rowNum).Msg("importación: actualizar lead")
		return "error de almacenamiento"
	}
	uc.note(ctx, actor, lead.ID, "Lead actualizado por importación", rowNum)
	return ""
}

func (uc *ImportUseCase) note(ctx context.Context, actor Actor, leadID, desc string, rowNum int) {
	err := uc.activities.Create(ctx, &entity.Activity{
		ID:          uuid.New().String(),
		ClientID:    actor.TenantID,
		LeadID:      strPtr(leadID),
		UserID:      actor.userRef(),
		Type:        entity.ActivityNote,
		Description: desc,
		Metadata:    map[string]any{"action": "import", "row": rowNum},
		CreatedAt:   uc.now(),
	})
	if err != nil {
		uc.log.Warn().Err(err).Int("row", rowNum).Str("lead_id", leadID).Msg("importación: actividad no registrada")
	}
}

// applyImportRow copia los campos presentes de la fila al lead. Devuelve un mensaje de error
// de fila si el estado no puede aplicarse.
func applyImportRow(lead *entity.Lead, row dto.ImportRow, now time.Time) string {
	set := func(dst *string, v string) {
		if v = sanitize.Text(v); v != "" {
			*dst = v
		}
	}
	set(&lead.FirstName, row.FirstName)
	set(&lead.LastName, row.LastName)
	set(&lead.Company, row.Company)
	set(&lead.Phone, row.Phone)
	set(&lead.Notes, row.Notes)
	if lead.Email == "" {
		lead.Email = strings.TrimSpace(row.Email)
	}
	if row.Priority != "" {
		lead.Priority = row.Priority
	}
	if src := strings.ToLower(sanitize.Text(row.Source)); src != "" {
		lead.Source = src
	}
	if row.EstimatedValue != "" {
		v, err := decimal.NewFromString(row.EstimatedValue)
		if err != nil || v.IsNegative() {
			return "estimated_value: debe ser un número no negativo"
		}
		lead.EstimatedValue = &v
	}
	if row.ClosingProbability != nil && lead.IsOpen() {
		p := *row.ClosingProbability
		lead.ClosingProbability = &p
	}
	if row.Status != "" {
		if _, ok := lead.ApplyStatus(row.Status, now); !ok {
			return fmt.Sprintf("status: transición no permitida (%s -> %s)", lead.Status, row.Status)
		}
	}
	return ""
}

// decodeImportRow decodifica una fila libre (claves camelCase o snake_case, tipos débiles)
// y la valida contra el esquema de importación.
func decodeImportRow(raw map[string]any) (dto.ImportRow, error) {
	var row dto.ImportRow
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &row,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return row, err
	}
	if err := dec.Decode(normalizeKeys(dropEmpty(raw))); err != nil {
		ve := domain.NewValidationError()
		ve.Add("row", decodeMessage(err))
		return row, ve
	}
	row.Email = strings.TrimSpace(row.Email)
	row.Status = strings.ToLower(strings.TrimSpace(row.Status))
	row.Priority = strings.ToLower(strings.TrimSpace(row.Priority))
	row.EstimatedValue = strings.TrimSpace(row.EstimatedValue)
	if err := validation.Struct(row); err != nil {
		return row, err
	}
	return row, nil
}

// dropEmpty descarta celdas vacías (típicas de CSV) para que no choquen con tipos numéricos.
func dropEmpty(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}

// rowErrorMessage "campo: mensaje; campo: mensaje" en orden estable.
func rowErrorMessage(err error) string {
	ve, ok := domain.AsValidation(err)
	if !ok {
		return err.Error()
	}
	keys := make([]string, 0, len(ve.Fields))
	for k := range ve.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(ve.Fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// PreviewCSV convierte un CSV en filas JSON con su validación, sin escribir nada.
func (uc *ImportUseCase) PreviewCSV(ctx context.Context, actor Actor, r io.Reader) (*dto.CSVPreviewResponse, error) {
	if err := actor.requireTenant(); err != nil {
		return nil, err
	}
	headers, rows, err := uc.csv.Decode(io.LimitReader(r, MaxImportBytes+1), MaxImportRows)
	if err != nil {
		ve := domain.NewValidationError()
		if errors.Is(err, ports.ErrTooManyRows) {
			ve.Add("file", fmt.Sprintf("máximo %d filas", MaxImportRows))
		} else {
			ve.Add("file", "CSV inválido: "+err.Error())
		}
		return nil, ve
	}
	out := &dto.CSVPreviewResponse{Headers: headers, Total: len(rows), Rows: make([]dto.CSVPreviewRow, 0, len(rows))}
	for i, raw := range rows {
		pr := dto.CSVPreviewRow{Row: i + 1, Data: raw}
		if _, err := decodeImportRow(raw); err != nil {
			if ve, ok := domain.AsValidation(err); ok {
				pr.Errors = ve.Fields
			} else {
				pr.Errors = map[string][]string{"row": {err.Error()}}
			}
			out.Invalid++
		} else {
			out.Valid++
		}
		out.Rows = append(out.Rows, pr)
	}
	return out, nil
}
