package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/domain/repository"
)

func toLeadResponse(l *entity.Lead, w entity.ScoringWeights) dto.LeadResponse {
	return dto.LeadResponse{
		ID:                 l.ID,
		ClientID:           l.ClientID,
		FirstName:          l.FirstName,
		LastName:           l.LastName,
		Company:            l.Company,
		Email:              l.Email,
		Phone:              l.Phone,
		Status:             l.Status,
		Priority:           l.Priority,
		Source:             l.Source,
		AssignedTo:         l.AssignedTo,
		EstimatedValue:     l.EstimatedValue,
		ClosingProbability: l.EffectiveClosingProbability(),
		Score:              entity.Score(l, w),
		Notes:              l.Notes,
		Qualification:      l.Qualification,
		QualifiedAt:        l.QualifiedAt,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

func toActivityResponse(a *entity.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          a.ID,
		LeadID:      a.LeadID,
		UserID:      a.UserID,
		Type:        a.Type,
		Description: a.Description,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
}

// weightCache pesos de scoring por agencia dentro de una misma operación.
type weightCache struct {
	tenants repository.TenantRepository
	byID    map[string]entity.ScoringWeights
}

func newWeightCache(tenants repository.TenantRepository) *weightCache {
	return &weightCache{tenants: tenants, byID: map[string]entity.ScoringWeights{}}
}

// get devuelve los pesos de la agencia; ante error o agencia sin pesos, los de defecto.
func (c *weightCache) get(ctx context.Context, tenantID string) entity.ScoringWeights {
	if w, ok := c.byID[tenantID]; ok {
		return w
	}
	w := entity.DefaultScoringWeights()
	if c.tenants != nil {
		if t, err := c.tenants.GetByID(ctx, tenantID); err == nil && t != nil && !t.Settings.ScoringWeight.IsZero() {
			w = t.Settings.ScoringWeight
		}
	}
	c.byID[tenantID] = w
	return w
}

var hundred = decimal.NewFromInt(100)

// conversionRate closed/total*100 con 2 decimales; 0 si total es 0.
func conversionRate(closed, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(closed)).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(2)
}

// statsFromAggregates arma las métricas del pipeline a partir de los agregados por estado.
func statsFromAggregates(rows []repository.LeadStatusAggregate) dto.LeadStatsResponse {
	out := dto.LeadStatsResponse{PipelineValue: decimal.Zero, WonValue: decimal.Zero}
	for _, r := range rows {
		out.Total += r.Count
		switch r.Status {
		case entity.LeadStatusNew:
			out.New += r.Count
		case entity.LeadStatusContacted:
			out.Contacted += r.Count
		case entity.LeadStatusQualified:
			out.Qualified += r.Count
		case entity.LeadStatusProposal:
			out.Proposal += r.Count
		case entity.LeadStatusClosed:
			out.Closed += r.Count
		case entity.LeadStatusLost:
			out.Lost += r.Count
		}
		switch {
		case r.Status == entity.LeadStatusClosed:
			out.WonValue = out.WonValue.Add(r.Value)
		case !entity.IsTerminalStatus(r.Status):
			out.PipelineValue = out.PipelineValue.Add(r.Value)
		}
	}
	out.ConversionRate = conversionRate(out.Closed, out.Total)
	return out
}

// statsFromLeads misma agregación sobre un conjunto ya cargado (export).
func statsFromLeads(leads []*entity.Lead) dto.LeadStatsResponse {
	agg := map[string]*repository.LeadStatusAggregate{}
	for _, l := range leads {
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
	rows := make([]repository.LeadStatusAggregate, 0, len(agg))
	for _, a := range agg {
		rows = append(rows, *a)
	}
	return statsFromAggregates(rows)
}
