package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/ports"
	"github.com/jhoicas/agencia-leads-api/internal/application/validation"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

// Formatos de export.
const (
	ExportCSV = "csv"
	ExportPDF = "pdf"
)

const exportPageSize = 500

// ExportFile archivo listo para descargar.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportUseCase export de leads de la agencia como CSV o informe PDF del pipeline.
type ExportUseCase struct {
	leads    repository.LeadRepository
	tenants  repository.TenantRepository
	csv      ports.CSVCodec
	renderer ports.ReportRenderer
	now      func() time.Time
}

// NewExportUseCase construye el caso de uso.
func NewExportUseCase(leads repository.LeadRepository, tenants repository.TenantRepository, csv ports.CSVCodec, renderer ports.ReportRenderer) *ExportUseCase {
	return &ExportUseCase{
		leads:    leads,
		tenants:  tenants,
		csv:      csv,
		renderer: renderer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Export genera el archivo con todos los leads de la agencia que cumplen los filtros.
func (uc *ExportUseCase) Export(ctx context.Context, tenantID, format string, in dto.LeadListRequest) (*ExportFile, error) {
	if tenantID == "" {
		return nil, domain.ErrNoTenant
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportPDF {
		ve := domain.NewValidationError()
		ve.Add("format", "debe ser uno de: csv pdf")
		return nil, ve
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	leads, err := uc.collect(ctx, tenantID, in)
	if err != nil {
		return nil, err
	}
	stamp := uc.now().Format("20060102-150405")

	if format == ExportCSV {
		var buf bytes.Buffer
		if err := uc.csv.EncodeLeads(&buf, leads); err != nil {
			return nil, fmt.Errorf("export csv: %w", err)
		}
		return &ExportFile{
			Filename:    "leads-" + stamp + ".csv",
			ContentType: "text/csv; charset=utf-8",
			Body:        buf.Bytes(),
		}, nil
	}

	tenant, err := uc.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("obtener agencia: %w", err)
	}
	if tenant == nil {
		return nil, domain.ErrNotFound
	}
	body, err := uc.renderer.RenderPipeline(buildPipelineReport(tenant, leads, uc.now()))
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	return &ExportFile{
		Filename:    "pipeline-" + stamp + ".pdf",
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func (uc *ExportUseCase) collect(ctx context.Context, tenantID string, in dto.LeadListRequest) ([]*entity.Lead, error) {
	var out []*entity.Lead
	for offset := 0; ; offset += exportPageSize {
		page, total, err := uc.leads.List(ctx, repository.LeadFilter{
			ClientID:   &tenantID,
			Status:     in.Status,
			Priority:   in.Priority,
			Source:     in.Source,
			AssignedTo: in.AssignedTo,
			Search:     strings.TrimSpace(in.Search),
			Limit:      exportPageSize,
			Offset:     offset,
		})
		if err != nil {
			return nil, fmt.Errorf("listar leads: %w", err)
		}
		out = append(out, page...)
		if len(page) < exportPageSize || len(out) >= total {
			return out, nil
		}
	}
}

func buildPipelineReport(t *entity.Tenant, leads []*entity.Lead, now time.Time) ports.PipelineReport {
	stats := statsFromLeads(leads)
	r := ports.PipelineReport{
		TenantName:  t.Name,
		Currency:    t.Settings.CurrencyOrDefault(),
		GeneratedAt: now.In(t.Settings.Location()),
		Total:       stats.Total,
		ByStatus: map[string]int{
			entity.LeadStatusNew:       stats.New,
			entity.LeadStatusContacted: stats.Contacted,
			entity.LeadStatusQualified: stats.Qualified,
			entity.LeadStatusProposal:  stats.Proposal,
			entity.LeadStatusClosed:    stats.Closed,
			entity.LeadStatusLost:      stats.Lost,
		},
		PipelineValue:  stats.PipelineValue,
		WonValue:       stats.WonValue,
		ConversionRate: stats.ConversionRate,
		Rows:           make([]ports.PipelineReportRow, 0, len(leads)),
	}
	for _, l := range leads {
		value := ""
		if l.EstimatedValue != nil {
			value = l.EstimatedValue.StringFixed(2)
		}
		r.Rows = append(r.Rows, ports.PipelineReportRow{
			Name:           l.FullName(),
			Company:        l.Company,
			Email:          l.Email,
			Status:         l.Status,
			Priority:       l.Priority,
			Source:         l.Source,
			EstimatedValue: value,
			CreatedAt:      l.CreatedAt,
		})
	}
	return r
}
