package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

func TestCanTransition(t *testing.T) {
	for _, from := range []string{entity.LeadStatusNew, entity.LeadStatusContacted, entity.LeadStatusQualified, entity.LeadStatusProposal} {
		for _, to := range entity.LeadStatuses {
			assert.True(t, entity.CanTransition(from, to), "%s -> %s debe estar permitido", from, to)
		}
	}
	for _, from := range []string{entity.LeadStatusClosed, entity.LeadStatusLost} {
		for _, to := range entity.LeadStatuses {
			if to == from {
				continue
			}
			assert.False(t, entity.CanTransition(from, to), "%s es terminal", from)
		}
	}
	assert.False(t, entity.CanTransition(entity.LeadStatusNew, "archived"))
}

func TestApplyStatus_FijaProbabilidadEnTerminales(t *testing.T) {
	now := time.Now()
	l := &entity.Lead{Status: entity.LeadStatusProposal}

	changed, ok := l.ApplyStatus(entity.LeadStatusClosed, now)
	assert.True(t, ok)
	assert.True(t, changed)
	assert.Equal(t, 100, *l.ClosingProbability)

	l2 := &entity.Lead{Status: entity.LeadStatusNew}
	_, ok = l2.ApplyStatus(entity.LeadStatusLost, now)
	assert.True(t, ok)
	assert.Equal(t, 0, *l2.ClosingProbability)

	changed, ok = l2.ApplyStatus(entity.LeadStatusNew, now)
	assert.False(t, ok)
	assert.False(t, changed)
}

func TestApplyStatus_MismoEstadoEsNoOp(t *testing.T) {
	l := &entity.Lead{Status: entity.LeadStatusContacted}
	changed, ok := l.ApplyStatus(entity.LeadStatusContacted, time.Now())
	assert.True(t, ok)
	assert.False(t, changed)
}

func TestEffectiveClosingProbability(t *testing.T) {
	assert.Equal(t, 10, (&entity.Lead{Status: entity.LeadStatusNew}).EffectiveClosingProbability())
	assert.Equal(t, 60, (&entity.Lead{Status: entity.LeadStatusProposal}).EffectiveClosingProbability())

	p := 75
	assert.Equal(t, 75, (&entity.Lead{Status: entity.LeadStatusProposal, ClosingProbability: &p}).EffectiveClosingProbability())
	assert.Equal(t, 100, (&entity.Lead{Status: entity.LeadStatusClosed, ClosingProbability: &p}).EffectiveClosingProbability())
	assert.Equal(t, 0, (&entity.Lead{Status: entity.LeadStatusLost, ClosingProbability: &p}).EffectiveClosingProbability())
}

func TestQualify_IdempotenteEnEstado(t *testing.T) {
	l := &entity.Lead{Status: entity.LeadStatusNew}
	t1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	assert.True(t, l.Qualify(entity.Qualification{Industry: "SaaS", Budget: "10k"}, t1))
	assert.Equal(t, entity.LeadStatusQualified, l.Status)
	assert.Equal(t, t1, *l.QualifiedAt)

	assert.True(t, l.Qualify(entity.Qualification{Budget: "20k"}, t2))
	assert.Equal(t, entity.LeadStatusQualified, l.Status)
	assert.Equal(t, t2, *l.QualifiedAt)
	assert.Equal(t, "20k", l.Qualification.Budget)
	assert.Equal(t, "SaaS", l.Qualification.Industry)
}

func TestQualify_LeadTerminal(t *testing.T) {
	l := &entity.Lead{Status: entity.LeadStatusLost}
	assert.False(t, l.Qualify(entity.Qualification{Industry: "x"}, time.Now()))
	assert.Equal(t, entity.LeadStatusLost, l.Status)
	assert.Nil(t, l.QualifiedAt)
}

func TestScore(t *testing.T) {
	yes := true
	l := &entity.Lead{
		Phone:    "+48 600 000 000",
		Company:  "Acme",
		Priority: entity.PriorityHigh,
		Source:   entity.SourceReferral,
		Qualification: &entity.Qualification{
			DecisionMaker: &yes, Budget: "50k", Timeline: "Q3",
		},
	}
	assert.Equal(t, 100, entity.Score(l, entity.ScoringWeights{}))
	assert.Equal(t, 0, entity.Score(&entity.Lead{}, entity.ScoringWeights{}))

	custom := entity.ScoringWeights{HasPhone: 70, HasCompany: 70}
	assert.Equal(t, 100, entity.Score(l, custom), "se limita a 100")
	assert.Equal(t, 70, entity.Score(&entity.Lead{Phone: "1"}, custom))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jan@acme.pl", entity.NormalizeEmail("  Jan@ACME.pl "))
	assert.Equal(t, entity.NormalizeEmail("JAN@acme.PL"), entity.NormalizeEmail("jan@Acme.pl"))
}
