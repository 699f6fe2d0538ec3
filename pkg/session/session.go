// Package session emite y valida los tokens de sesión del portal.
//
// El token solo identifica al usuario (subject) y su vencimiento. El tenant y el rol
// NO viajan en el token: la puerta de autorización los vuelve a leer del registro del
// usuario en cada petición, de modo que un cambio de rol o de agencia surte efecto de inmediato.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken token ausente, mal formado, con firma incorrecta o vencido.
var ErrInvalidToken = errors.New("session: token inválido o expirado")

// Claims claims estándar más el id de usuario.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// Token resultado de Parse.
type Token struct {
	UserID    string
	ExpiresAt time.Time
}

// Manager firma y valida tokens HS256.
type Manager struct {
	secret        []byte
	issuer        string
	ttl           time.Duration
	refreshWindow time.Duration
	now           func() time.Time
}

// NewManager construye el manager. refreshWindow es el margen antes del vencimiento
// a partir del cual NeedsRefresh devuelve true.
func NewManager(secret, issuer string, ttl, refreshWindow time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session: secret vacío")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session: ttl debe ser positivo")
	}
	return &Manager{
		secret:        []byte(secret),
		issuer:        issuer,
		ttl:           ttl,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}, nil
}

// TTL duración de los tokens emitidos.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue genera un token firmado para userID.
func (m *Manager) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("session: userID vacío")
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session: firmar token: %w", err)
	}
	return signed, exp, nil
}

// Parse valida firma, emisor y vencimiento. Cualquier fallo se reporta como ErrInvalidToken.
func (m *Manager) Parse(tokenString string) (*Token, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	return &Token{UserID: claims.UserID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// NeedsRefresh indica si al token le queda menos que la ventana de renovación.
func (m *Manager) NeedsRefresh(t *Token) bool {
	if t == nil || m.refreshWindow <= 0 {
		return false
	}
	return t.ExpiresAt.Sub(m.now()) < m.refreshWindow
}
