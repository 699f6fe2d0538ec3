package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del pipeline de un lead.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusProposal  = "proposal"
	LeadStatusClosed    = "closed"
	LeadStatusLost      = "lost"
)

// Prioridades.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Canales de adquisición conocidos (el campo source admite otros valores libres).
const (
	SourceWebsite  = "website"
	SourceMobile   = "mobile"
	SourceImport   = "import"
	SourceManual   = "manual"
	SourceReferral = "referral"
)

// LeadStatuses orden del pipeline.
var LeadStatuses = []string{
	LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
	LeadStatusProposal, LeadStatusClosed, LeadStatusLost,
}

// Qualification datos de negocio capturados al calificar un lead (JSONB).
type Qualification struct {
	Industry        string   `json:"industry,omitempty" mapstructure:"industry"`
	CompanySize     string   `json:"company_size,omitempty" mapstructure:"company_size"`
	Position        string   `json:"position,omitempty" mapstructure:"position"`
	DecisionMaker   *bool    `json:"decision_maker,omitempty" mapstructure:"decision_maker"`
	Budget          string   `json:"budget,omitempty" mapstructure:"budget"`
	Timeline        string   `json:"timeline,omitempty" mapstructure:"timeline"`
	ExpectedROI     string   `json:"expected_roi,omitempty" mapstructure:"expected_roi"`
	CurrentSolution string   `json:"current_solution,omitempty" mapstructure:"current_solution"`
	PainPoints      []string `json:"pain_points,omitempty" mapstructure:"pain_points"`
	Goals           []string `json:"goals,omitempty" mapstructure:"goals"`
	Notes           string   `json:"notes,omitempty" mapstructure:"notes"`
}

// IsEmpty indica si no se capturó ningún dato.
func (q Qualification) IsEmpty() bool {
	return q.Industry == "" && q.CompanySize == "" && q.Position == "" && q.DecisionMaker == nil &&
		q.Budget == "" && q.Timeline == "" && q.ExpectedROI == "" && q.CurrentSolution == "" &&
		len(q.PainPoints) == 0 && len(q.Goals) == 0 && q.Notes == ""
}

// Lead prospecto de venta perteneciente a exactamente una agencia.
// ClientID es obligatorio e inmutable tras la creación.
type Lead struct {
	ID                 string
	ClientID           string
	FirstName          string
	LastName           string
	Company            string
	Email              string
	Phone              string
	Status             string
	Priority           string
	Source             string
	AssignedTo         *string
	EstimatedValue     *decimal.Decimal
	ClosingProbability *int
	Notes              string
	Qualification      *Qualification
	QualifiedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsTerminalStatus closed y lost no admiten más transiciones.
func IsTerminalStatus(s string) bool {
	return s == LeadStatusClosed || s == LeadStatusLost
}

// ValidStatus informa si el estado es conocido.
func ValidStatus(s string) bool {
	for _, st := range LeadStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ValidPriority informa si la prioridad es conocida.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// CanTransition desde un estado no terminal se puede ir a cualquier estado;
// desde closed o lost a ninguno.
func CanTransition(from, to string) bool {
	if !ValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	return !IsTerminalStatus(from)
}

// IsOpen lead todavía en el pipeline.
func (l *Lead) IsOpen() bool {
	return !IsTerminalStatus(l.Status)
}

// FullName nombre para mostrar.
func (l *Lead) FullName() string {
	if l.LastName == "" {
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}

// defaultProbability probabilidad de cierre por estado cuando no se fijó manualmente.
var defaultProbability = map[string]int{
	LeadStatusNew:       10,
	LeadStatusContacted: 20,
	LeadStatusQualified: 40,
	LeadStatusProposal:  60,
	LeadStatusClosed:    100,
	LeadStatusLost:      0,
}

// DefaultClosingProbability valor por defecto para un estado.
func DefaultClosingProbability(status string) int {
	return defaultProbability[status]
}

// EffectiveClosingProbability valor manual si existe; closed y lost siempre 100 y 0.
func (l *Lead) EffectiveClosingProbability() int {
	switch l.Status {
	case LeadStatusClosed:
		return 100
	case LeadStatusLost:
		return 0
	}
	if l.ClosingProbability != nil {
		return *l.ClosingProbability
	}
	return DefaultClosingProbability(l.Status)
}

// ApplyStatus cambia el estado respetando la máquina de estados y fija la probabilidad
// convencional en closed/lost. Devuelve false si el estado no cambió.
func (l *Lead) ApplyStatus(to string, now time.Time) (changed bool, ok bool) {
	if !CanTransition(l.Status, to) {
		return false, false
	}
	if l.Status == to {
		return false, true
	}
	l.Status = to
	switch to {
	case LeadStatusClosed:
		p := 100
		l.ClosingProbability = &p
	case LeadStatusLost:
		p := 0
		l.ClosingProbability = &p
	}
	l.UpdatedAt = now
	return true, true
}

// Qualify fusiona los datos de calificación y marca el lead como qualified.
// Re-calificar sobrescribe los campos enviados y vuelve a sellar QualifiedAt.
func (l *Lead) Qualify(q Qualification, now time.Time) bool {
	if IsTerminalStatus(l.Status) {
		return false
	}
	merged := q
	if l.Qualification != nil {
		merged = mergeQualification(*l.Qualification, q)
	}
	l.Qualification = &merged
	l.Status = LeadStatusQualified
	t := now
	l.QualifiedAt = &t
	l.UpdatedAt = now
	return true
}

func mergeQualification(prev, next Qualification) Qualification {
	out := prev
	if next.Industry != "" {
		out.Industry = next.Industry
	}
	if next.CompanySize != "" {
		out.CompanySize = next.CompanySize
	}
	if next.Position != "" {
		out.Position = next.Position
	}
	if next.DecisionMaker != nil {
		out.DecisionMaker = next.DecisionMaker
	}
	if next.Budget != "" {
		out.Budget = next.Budget
	}
	if next.Timeline != "" {
		out.Timeline = next.Timeline
	}
	if next.ExpectedROI != "" {
		out.ExpectedROI = next.ExpectedROI
	}
	if next.CurrentSolution != "" {
		out.CurrentSolution = next.CurrentSolution
	}
	if len(next.PainPoints) > 0 {
		out.PainPoints = next.PainPoints
	}
	if len(next.Goals) > 0 {
		out.Goals = next.Goals
	}
	if next.Notes != "" {
		out.Notes = next.Notes
	}
	return out
}
