package dto

// ImportRequest POST /api/client/leads/import. SkipDuplicates por defecto true.
type ImportRequest struct {
	Leads          []map[string]any `json:"leads" validate:"required,min=1,max=5000"`
	SkipDuplicates *bool            `json:"skip_duplicates"`
	UpdateExisting bool             `json:"update_existing"`
}

// SkipDuplicatesOrDefault valor efectivo de skip_duplicates.
func (r ImportRequest) SkipDuplicatesOrDefault() bool {
	if r.SkipDuplicates == nil {
		return true
	}
	return *r.SkipDuplicates
}

// ImportRow esquema de una fila ya decodificada (claves snake_case).
type ImportRow struct {
	FirstName          string `json:"first_name" mapstructure:"first_name" validate:"required,min=1,max=100"`
	LastName           string `json:"last_name" mapstructure:"last_name" validate:"omitempty,max=100"`
	Company            string `json:"company" mapstructure:"company" validate:"omitempty,max=200"`
	Email              string `json:"email" mapstructure:"email" validate:"required,email,max=254"`
	Phone              string `json:"phone" mapstructure:"phone" validate:"omitempty,max=30"`
	Status             string `json:"status" mapstructure:"status" validate:"omitempty,lead_status"`
	Priority           string `json:"priority" mapstructure:"priority" validate:"omitempty,priority"`
	Source             string `json:"source" mapstructure:"source" validate:"omitempty,max=50"`
	EstimatedValue     string `json:"estimated_value" mapstructure:"estimated_value" validate:"omitempty,numeric"`
	ClosingProbability *int   `json:"closing_probability" mapstructure:"closing_probability" validate:"omitempty,min=0,max=100"`
	Notes              string `json:"notes" mapstructure:"notes" validate:"omitempty,max=5000"`
}

// ImportRowError error de una fila; Row es la posición 1-based en el lote.
type ImportRowError struct {
	Row   int            `json:"row"`
	Error string         `json:"error"`
	Data  map[string]any `json:"data"`
}

// ImportResult resumen del lote (no transaccional: los éxitos parciales se conservan).
type ImportResult struct {
	Total    int              `json:"total"`
	Imported int              `json:"imported"`
	Updated  int              `json:"updated"`
	Skipped  int              `json:"skipped"`
	Errors   []ImportRowError `json:"errors"`
}

// CSVPreviewRow fila del CSV convertida a JSON con sus errores de validación.
type CSVPreviewRow struct {
	Row    int                 `json:"row"`
	Data   map[string]any      `json:"data"`
	Errors map[string][]string `json:"errors,omitempty"`
}

// CSVPreviewResponse PUT /api/client/leads/import (sin escrituras).
type CSVPreviewResponse struct {
	Headers []string        `json:"headers"`
	Total   int             `json:"total"`
	Valid   int             `json:"valid"`
	Invalid int             `json:"invalid"`
	Rows    []CSVPreviewRow `json:"rows"`
}
