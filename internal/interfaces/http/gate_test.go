package http_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	apphttp "github.com/jhoicas/agencia-leads-api/internal/interfaces/http"
)

func TestClassify(t *testing.T) {
	cases := map[string]apphttp.RouteClass{
		"/":                             apphttp.ClassPassthrough,
		"/about":                        apphttp.ClassPassthrough,
		"/clientes":                     apphttp.ClassPassthrough,
		"/health":                       apphttp.ClassPublic,
		"/api/health":                   apphttp.ClassPublic,
		"/api/leads":                    apphttp.ClassPublic,
		"/api/leads/qualify":            apphttp.ClassPublic,
		"/api/auth/login":               apphttp.ClassPublic,
		"/client":                       apphttp.ClassTenant,
		"/client/leads":                 apphttp.ClassTenant,
		"/api/client":                   apphttp.ClassTenant,
		"/api/client/leads/stats":       apphttp.ClassTenant,
		"/api/client/team/rotation/abc": apphttp.ClassTenant,
		"/api/admin/tenants":            apphttp.ClassPlatform,
		"/api/administracion":           apphttp.ClassPassthrough,
		"/API/admin/leads":              apphttp.ClassPlatform,
		"/api/Admin/leads":              apphttp.ClassPlatform,
		"//api//admin/tenants":          apphttp.ClassPlatform,
		"/api/leads/../admin/leads":     apphttp.ClassPlatform,
		"/Api/Client/leads":             apphttp.ClassTenant,
		"/CLIENT":                       apphttp.ClassTenant,
	}
	for path, want := range cases {
		assert.Equal(t, want, apphttp.Classify(path), path)
	}
}

// Caso 1: API de agencia sin sesión → 401 JSON, nunca llega al handler.
func TestGate_APISinSesion401(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/client/leads", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeUnauthorized, body.Code)
}

// Caso 2: página del portal sin sesión → redirección al login con la ruta original.
func TestGate_PortalSinSesionRedirige(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/client/leads?status=new", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fclient%2Fleads%3Fstatus%3Dnew", resp.Header.Get("Location"))
}

// Caso 3: token inválido o caducado se trata igual que la ausencia de sesión.
func TestGate_TokenInvalidoOExpirado(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/client/leads", nil, bearer("no-es-un-jwt"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	expired := newServer(t, serverOpts{ttl: time.Nanosecond})
	tok := expired.token(t, managerA)
	time.Sleep(5 * time.Millisecond)
	resp = s.do(t, http.MethodGet, "/api/client/leads", nil, bearer(tok))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Caso 4: las cabeceras de confianza enviadas por el cliente se descartan y se reescriben
// con los valores verificados.
func TestGate_IgnoraCabecerasDelCliente(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/client", nil,
		bearer(s.token(t, managerA)),
		header(apphttp.HeaderTenantID, tenantB),
		header(apphttp.HeaderUserID, managerB),
		header(apphttp.HeaderUserRole, "admin"),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, tenantA, body["client_id"])
	assert.Equal(t, managerA, body["user_id"])
	assert.Equal(t, "manager", body["role"])
}

// Caso 5: sesión válida pero sin agencia (administrador de plataforma) → 403.
func TestGate_SinAgencia403(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/client/leads", nil, bearer(s.token(t, platform)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeNoTenant, body.Code)
}

// Caso 6: usuario borrado después de emitir el token → sin sesión.
func TestGate_UsuarioInexistente(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/client/leads", nil, bearer(s.token(t, "c0000000-0000-4000-8000-000000000099")))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Caso 7: si el almacén no responde la puerta falla cerrada.
func TestGate_AlmacenCaidoFallaCerrado(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	s.store.SetFailing(true)

	resp := s.do(t, http.MethodGet, "/api/client/leads", nil, bearer(tok))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, apphttp.CodeAuthUnavailable, body.Code)

	resp = s.do(t, http.MethodGet, "/client", nil, bearer(tok))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

// Caso 8: la cookie de sesión es equivalente al Bearer.
func TestGate_CookieDeSesion(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/client/me", nil, header("Cookie", "session="+s.token(t, managerA)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[dto.MeResponse](t, resp)
	assert.Equal(t, tenantA, me.ClientID)
	require.NotNil(t, me.Tenant)
	assert.Equal(t, "Agencia A", me.Tenant.Name)
}

// Caso 9: token cerca del vencimiento → se reemite sin cambiar el resultado de la petición.
func TestGate_RenuevaSesion(t *testing.T) {
	s := newServer(t, serverOpts{ttl: 10 * time.Minute, refresh: 15 * time.Minute})
	resp := s.do(t, http.MethodGet, "/api/client/me", nil, bearer(s.token(t, managerA)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fresh := resp.Header.Get(apphttp.HeaderSessionToken)
	require.NotEmpty(t, fresh)

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == "session" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie, "debe enviarse la cookie renovada")
	assert.Equal(t, fresh, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	resp = s.do(t, http.MethodGet, "/api/client/me", nil, bearer(fresh))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Caso 10: sin ventana de renovación no se reemite nada.
func TestGate_SinRenovacion(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/api/client/me", nil, bearer(s.token(t, managerA)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(apphttp.HeaderSessionToken))
}

// Caso 11: rutas de plataforma solo para administradores sin agencia.
func TestGate_Plataforma(t *testing.T) {
	s := newServer(t)

	resp := s.do(t, http.MethodGet, "/api/admin/tenants", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/admin/tenants", nil, bearer(s.token(t, managerA)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/admin/tenants", nil, bearer(s.token(t, platform)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.TenantListResponse](t, resp)
	assert.Len(t, list.Items, 2)
}

// Caso 12: las rutas públicas no exigen sesión.
func TestGate_RutasPublicas(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// Caso 13: variantes de mayúsculas de rutas protegidas no esquivan la puerta.
func TestGate_MayusculasNoEsquivanLaPuerta(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{
		"/API/admin/leads",
		"/api/Admin/leads",
		"/Api/admin/tenants",
		"/api/ADMIN/leads/stats",
		"/API/client/leads",
		"/api/Client/leads",
	} {
		resp := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		body := decode[dto.ErrorResponse](t, resp)
		assert.Equal(t, apphttp.CodeUnauthorized, body.Code, path)
	}

	// Con sesión de agencia la ruta de plataforma sigue prohibida.
	resp := s.do(t, http.MethodGet, "/API/admin/leads", nil, bearer(s.token(t, managerA)))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Con sesión válida, el enrutado distingue mayúsculas: no hay ruta "/API/admin".
	resp = s.do(t, http.MethodGet, "/API/admin/tenants", nil, bearer(s.token(t, platform)))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Caso 14: portal con mayúsculas también redirige al login.
func TestGate_PortalMayusculasRedirige(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodGet, "/Client/leads", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login?next=")
}
