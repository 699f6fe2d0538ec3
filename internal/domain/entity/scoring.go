package entity

// ScoringWeights pesos por criterio configurables por agencia.
type ScoringWeights struct {
	HasPhone       int `json:"has_phone"`
	HasCompany     int `json:"has_company"`
	DecisionMaker  int `json:"decision_maker"`
	Budget         int `json:"budget"`
	Timeline       int `json:"timeline"`
	ReferralSource int `json:"referral_source"`
	PriorityHigh   int `json:"priority_high"`
}

// IsZero la agencia no configuró pesos.
func (w ScoringWeights) IsZero() bool {
	return w == ScoringWeights{}
}

// DefaultScoringWeights pesos usados cuando la agencia no define los suyos.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		HasPhone:       10,
		HasCompany:     10,
		DecisionMaker:  25,
		Budget:         20,
		Timeline:       15,
		ReferralSource: 10,
		PriorityHigh:   10,
	}
}

// Score puntuación 0..100 del lead.
func Score(l *Lead, w ScoringWeights) int {
	if l == nil {
		return 0
	}
	if w.IsZero() {
		w = DefaultScoringWeights()
	}
	score := 0
	if l.Phone != "" {
		score += w.HasPhone
	}
	if l.Company != "" {
		score += w.HasCompany
	}
	if l.Priority == PriorityHigh {
		score += w.PriorityHigh
	}
	if l.Source == SourceReferral {
		score += w.ReferralSource
	}
	if q := l.Qualification; q != nil {
		if q.DecisionMaker != nil && *q.DecisionMaker {
			score += w.DecisionMaker
		}
		if q.Budget != "" {
			score += w.Budget
		}
		if q.Timeline != "" {
			score += w.Timeline
		}
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
