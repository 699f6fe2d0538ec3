package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/auth"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/csvio"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/memory"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/pdf"
	"github.com/jhoicas/agencia-leads-api/internal/infrastructure/ratelimit"
	apphttp "github.com/jhoicas/agencia-leads-api/internal/interfaces/http"
	"github.com/jhoicas/agencia-leads-api/pkg/session"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testSecret = "test-secret-key-for-unit-tests"
	testIssuer = "agencia-leads-test"

	tenantA  = "a0000000-0000-4000-8000-000000000001"
	tenantB  = "b0000000-0000-4000-8000-000000000001"
	managerA = "a0000000-0000-4000-8000-0000000000c1"
	agentA1  = "a0000000-0000-4000-8000-0000000000a1"
	managerB = "b0000000-0000-4000-8000-0000000000c1"
	platform = "00000000-0000-4000-8000-0000000000ff"
	password = "secreta123"
)

type server struct {
	app      *fiber.App
	store    *memory.Store
	sessions *session.Manager
}

type serverOpts struct {
	ttl        time.Duration
	refresh    time.Duration
	rateMax    int
	noLimiter  bool
	noMetrics  bool
	cookieName string
}

// newServer arma la aplicación completa sobre el almacén en memoria con dos agencias,
// un manager y un agente en A, un manager en B y un administrador de plataforma.
func newServer(t *testing.T, opts ...serverOpts) *server {
	t.Helper()
	o := serverOpts{ttl: time.Hour, rateMax: 100}
	if len(opts) > 0 {
		o = opts[0]
		if o.ttl == 0 {
			o.ttl = time.Hour
		}
		if o.rateMax == 0 {
			o.rateMax = 100
		}
	}
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now().UTC()
	for _, tn := range []*entity.Tenant{
		{ID: tenantA, Name: "Agencia A", Domain: "agencia-a.pl", Settings: entity.DefaultTenantSettings(), CreatedAt: now},
		{ID: tenantB, Name: "Agencia B", Domain: "agencia-b.pl", Settings: entity.DefaultTenantSettings(), CreatedAt: now},
	} {
		require.NoError(t, store.Tenants().Create(ctx, tn))
	}
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	a, b := tenantA, tenantB
	for _, u := range []*entity.User{
		{ID: managerA, ClientID: &a, Email: "manager@agencia-a.pl", FullName: "Marta Manager", Role: entity.RoleManager},
		{ID: agentA1, ClientID: &a, Email: "adam@agencia-a.pl", FullName: "Adam Agent", Role: entity.RoleAgent},
		{ID: managerB, ClientID: &b, Email: "manager@agencia-b.pl", FullName: "Bruno Manager", Role: entity.RoleManager},
		{ID: platform, ClientID: nil, Email: "root@plataforma.pl", FullName: "Root", Role: entity.RoleAdmin},
	} {
		u.PasswordHash = hash
		u.CreatedAt = now
		require.NoError(t, store.Users().Create(ctx, u))
	}

	mgr, err := session.NewManager(testSecret, testIssuer, o.ttl, o.refresh)
	require.NoError(t, err)

	leads, activities, users, tenants := store.Leads(), store.Activities(), store.Users(), store.Tenants()
	codec := csvio.NewCodec()
	deps := apphttp.RouterDeps{
		AuthUC:     auth.NewAuthUseCase(users, tenants, mgr),
		LeadUC:     usecase.NewLeadUseCase(leads, activities, users, tenants, nil, nil),
		IntakeUC:   usecase.NewIntakeUseCase(leads, activities, tenants, nil, nil, "agencia-a.pl", nil),
		ImportUC:   usecase.NewImportUseCase(leads, activities, codec, nil),
		ExportUC:   usecase.NewExportUseCase(leads, tenants, codec, pdf.NewPipelineRenderer()),
		RotationUC: usecase.NewRotationUseCase(store.Rotations(), users, leads, activities, tenants, nil),
		TenantUC:   usecase.NewTenantUseCase(tenants, users),
		HealthUC: usecase.NewHealthUseCase("agencia-leads-api", time.Second,
			usecase.HealthCheck{Name: "database", Pinger: store, Required: true},
			usecase.HealthCheck{Name: "redis"},
		),
		Session: apphttp.GateConfig{CookieName: o.cookieName},
	}
	if !o.noLimiter {
		deps.Limiter = ratelimit.NewMemory(o.rateMax, time.Minute)
	}
	if !o.noMetrics {
		deps.Metrics = apphttp.NewMetrics("leads_test")
	}
	app := apphttp.NewApp(apphttp.AppConfig{Name: "agencia-leads-test"}, deps)
	return &server{app: app, store: store, sessions: mgr}
}

// token emite un token de sesión válido para el usuario.
func (s *server) token(t *testing.T, userID string) string {
	t.Helper()
	tok, _, err := s.sessions.Issue(userID)
	require.NoError(t, err, "debe generarse un token válido")
	return tok
}

type reqOpt func(*http.Request)

func bearer(tok string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func header(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

// do lanza la petición; body se serializa a JSON salvo que ya sea []byte.
func (s *server) do(t *testing.T, method, path string, body any, opts ...reqOpt) *http.Response {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		rd = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// decode lee el cuerpo JSON de la respuesta.
func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &out), "cuerpo: %s", raw)
	return out
}
