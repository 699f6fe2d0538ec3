package dto

import "time"

// LoginRequest credenciales del portal. Domain opcional para desambiguar el email entre agencias.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Domain   string `json:"domain" validate:"omitempty,max=253"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	ClientID  *string   `json:"client_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse token de sesión y usuario.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// MeResponse contexto de confianza de la petición actual.
type MeResponse struct {
	UserID   string          `json:"user_id"`
	ClientID string          `json:"client_id"`
	Role     string          `json:"role"`
	User     *UserResponse   `json:"user,omitempty"`
	Tenant   *TenantResponse `json:"tenant,omitempty"`
}
