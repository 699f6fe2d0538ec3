// Package csvio lee archivos CSV de importación de leads y escribe el export.
package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

var _ ports.CSVCodec = (*Codec)(nil)

// aliases cabeceras habituales en hojas de cálculo -> campo de importación.
var aliases = map[string]string{
	"e_mail":        "email",
	"mail":          "email",
	"email_address": "email",
	"correo":        "email",
	"name":          "first_name",
	"firstname":     "first_name",
	"first":         "first_name",
	"nombre":        "first_name",
	"imie":          "first_name",
	"lastname":      "last_name",
	"last":          "last_name",
	"surname":       "last_name",
	"apellido":      "last_name",
	"nazwisko":      "last_name",
	"company_name":  "company",
	"organization":  "company",
	"empresa":       "company",
	"firma":         "company",
	"phone_number":  "phone",
	"telephone":     "phone",
	"tel":           "phone",
	"telefono":      "phone",
	"telefon":       "phone",
	"value":         "estimated_value",
	"deal_value":    "estimated_value",
	"probability":   "closing_probability",
	"note":          "notes",
	"comments":      "notes",
	"comment":       "notes",
}

// Codec implementación sobre encoding/csv.
type Codec struct{}

// NewCodec construye el codec.
func NewCodec() *Codec { return &Codec{} }

// NormalizeHeader minúsculas, espacios y guiones a "_", alias resueltos.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	h = strings.Trim(h, "_")
	if a, ok := aliases[h]; ok {
		return a
	}
	return h
}

// Decode lee la cabecera y las filas de datos. Detecta ";" como separador cuando la cabecera
// lo usa más que ",". Las filas completamente vacías se ignoran.
func (c *Codec) Decode(r io.Reader, maxRows int) ([]string, []map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("leer csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, errors.New("archivo vacío")
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectComma(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	raw, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("cabecera: %w", err)
	}
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = NormalizeHeader(h)
	}

	var rows []map[string]any
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("fila %d: %w", len(rows)+1, err)
		}
		row := make(map[string]any, len(headers))
		empty := true
		for i, v := range rec {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			row[headers[i]] = v
		}
		if empty {
			continue
		}
		if maxRows > 0 && len(rows) >= maxRows {
			return nil, nil, ports.ErrTooManyRows
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

func detectComma(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// exportHeader columnas del export (compatibles con la importación).
var exportHeader = []string{
	"id", "first_name", "last_name", "company", "email", "phone", "status", "priority",
	"source", "assigned_to", "estimated_value", "closing_probability", "notes",
	"qualified_at", "created_at",
}

// EncodeLeads escribe los leads con cabecera.
func (c *Codec) EncodeLeads(w io.Writer, leads []*entity.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, l := range leads {
		assigned, value, qualified := "", "", ""
		if l.AssignedTo != nil {
			assigned = *l.AssignedTo
		}
		if l.EstimatedValue != nil {
			value = l.EstimatedValue.StringFixed(2)
		}
		if l.QualifiedAt != nil {
			qualified = l.QualifiedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		rec := []string{
			l.ID, l.FirstName, l.LastName, l.Company, l.Email, l.Phone, l.Status, l.Priority,
			l.Source, assigned, value, strconv.Itoa(l.EffectiveClosingProbability()), l.Notes,
			qualified, l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
