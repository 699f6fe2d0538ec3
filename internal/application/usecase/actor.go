package usecase

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/jhoicas/agencia-leads-api/internal/domain"
)

// Actor contexto de confianza de la petición: agencia y usuario verificados por la puerta
// de autorización. Nunca se construye a partir de datos enviados por el cliente.
type Actor struct {
	TenantID string
	UserID   string
}

func (a Actor) requireTenant() error {
	if a.TenantID == "" {
		return domain.ErrNoTenant
	}
	return nil
}

func (a Actor) userRef() *string {
	if a.UserID == "" {
		return nil
	}
	id := a.UserID
	return &id
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func strPtr(s string) *string { return &s }

// normalizeKey lleva una clave camelCase, con espacios o guiones a snake_case:
// "companySize" -> "company_size", "expectedROI" -> "expected_roi", "First Name" -> "first_name".
func normalizeKey(k string) string {
	k = strings.TrimSpace(k)
	var b strings.Builder
	runes := []rune(k)
	for i, r := range runes {
		switch {
		case r == ' ' || r == '-' || r == '.':
			b.WriteRune('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}

func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[normalizeKey(k)] = v
	}
	return out
}
