// Package pdf genera el informe PDF del pipeline de leads de una agencia.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Agencia              │  Informe de pipeline + fecha │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Total | Valor pipeline | Ganado | Conversión      │
//	│  ESTADOS: new | contacted | qualified | proposal | ...      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Nombre | Empresa | Estado | Prior. | Origen | Valor │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

var _ ports.ReportRenderer = (*PipelineRenderer)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorHeader  = &props.Color{Red: 225, Green: 235, Blue: 245}
)

// PipelineRenderer implementa ports.ReportRenderer con Maroto v2.
type PipelineRenderer struct{}

// NewPipelineRenderer construye el generador.
func NewPipelineRenderer() *PipelineRenderer { return &PipelineRenderer{} }

// RenderPipeline genera el PDF y devuelve sus bytes.
func (g *PipelineRenderer) RenderPipeline(r ports.PipelineReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Informe de pipeline", true).
		WithAuthor(r.TenantName, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(r))
	m.AddRows(statusRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(detailRows(r)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(r ports.PipelineReport) core.Row {
	return row.New(16).Add(
		col.New(7).Add(
			text.New(r.TenantName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(5).Add(
			text.New("INFORME DE PIPELINE", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
		),
	)
}

func summaryRow(r ports.PipelineReport) core.Row {
	cell := func(label, value string) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Top: 5}),
		)
	}
	return row.New(14).Add(
		cell("Leads", fmt.Sprint(r.Total)),
		cell("Valor en pipeline", formatAmount(r.PipelineValue)+" "+r.Currency),
		cell("Ganado", formatAmount(r.WonValue)+" "+r.Currency),
		cell("Conversión", r.ConversionRate.StringFixed(2)+"%"),
	)
}

func statusRow(r ports.PipelineReport) core.Row {
	cols := make([]core.Col, 0, len(entity.LeadStatuses))
	for _, st := range entity.LeadStatuses {
		cols = append(cols, col.New(2).Add(
			text.New(st, props.Text{Size: 7, Color: colorGray, Align: align.Center, Top: 1}),
			text.New(fmt.Sprint(r.ByStatus[st]), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Center, Top: 5}),
		))
	}
	return row.New(12).Add(cols...)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorHeader}).Add(
		h("Nombre", 3, align.Left),
		h("Empresa", 3, align.Left),
		h("Estado", 2, align.Left),
		h("Prior.", 1, align.Left),
		h("Origen", 1, align.Left),
		h("Valor", 2, align.Right),
	)
}

func detailRows(r ports.PipelineReport) []core.Row {
	out := make([]core.Row, 0, len(r.Rows))
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	for _, d := range r.Rows {
		value := "—"
		if d.EstimatedValue != "" {
			if v, err := decimal.NewFromString(d.EstimatedValue); err == nil {
				value = formatAmount(v)
			}
		}
		out = append(out, row.New(6).Add(
			cell(truncate(d.Name, 32), 3, align.Left),
			cell(truncate(d.Company, 32), 3, align.Left),
			cell(d.Status, 2, align.Left),
			cell(d.Priority, 1, align.Left),
			cell(truncate(d.Source, 12), 1, align.Left),
			cell(value, 2, align.Right),
		))
	}
	return out
}

// formatAmount separa miles con espacio y usa coma decimal: 1234567.5 -> "1 234 567,50".
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, intPart[i])
	}
	out := string(buf) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
