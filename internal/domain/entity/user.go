package entity

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Roles válidos para User.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
)

// User representa un usuario. ClientID es nil solo para administradores de plataforma.
type User struct {
	ID           string
	ClientID     *string
	Email        string
	PasswordHash string // bcrypt hash
	FullName     string
	Role         string // admin, manager, agent
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TenantID id de la agencia o "" si es usuario de plataforma.
func (u *User) TenantID() string {
	if u == nil || u.ClientID == nil {
		return ""
	}
	return *u.ClientID
}

// BelongsTo indica si el usuario pertenece a la agencia dada.
func (u *User) BelongsTo(clientID string) bool {
	return clientID != "" && u.TenantID() == clientID
}

// IsPlatformAdmin administrador sin agencia (vista de super-admin).
func (u *User) IsPlatformAdmin() bool {
	return u != nil && u.ClientID == nil && u.Role == RoleAdmin
}

// ValidRole informa si el rol es conocido.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleAgent:
		return true
	}
	return false
}

// NormalizeEmail clave de comparación de emails: sin espacios y con case folding.
// Es la única clave de deduplicación de leads. Un Caser no es seguro entre goroutines,
// por eso se crea uno por llamada.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}
