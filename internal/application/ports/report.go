package ports

import (
	"time"

	"github.com/shopspring/decimal"
)

// PipelineReport datos del informe exportable de leads.
type PipelineReport struct {
	TenantName     string
	Currency       string
	GeneratedAt    time.Time
	Total          int
	ByStatus       map[string]int
	PipelineValue  decimal.Decimal
	WonValue       decimal.Decimal
	ConversionRate decimal.Decimal
	Rows           []PipelineReportRow
}

// PipelineReportRow una fila del detalle.
type PipelineReportRow struct {
	Name           string
	Company        string
	Email          string
	Status         string
	Priority       string
	Source         string
	EstimatedValue string
	CreatedAt      time.Time
}

// ReportRenderer genera el PDF del informe.
type ReportRenderer interface {
	RenderPipeline(report PipelineReport) ([]byte, error)
}
