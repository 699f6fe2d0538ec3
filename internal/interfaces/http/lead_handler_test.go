package http_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	apphttp "github.com/jhoicas/agencia-leads-api/internal/interfaces/http"
)

func createLead(t *testing.T, s *server, tok, email string) dto.LeadResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/client/leads", map[string]any{
		"first_name": "Jan",
		"company":    "Kowalski Sp. z o.o.",
		"email":      email,
	}, bearer(tok))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.LeadResponse](t, resp)
}

// El client_id del cuerpo se ignora: el lead queda en la agencia de la sesión.
func TestLeads_CreateUsaAgenciaDeLaSesion(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPost, "/api/client/leads", map[string]any{
		"client_id":  tenantB,
		"first_name": "Jan",
		"company":    "Kowalski",
		"email":      "jan@kowalski.pl",
	}, bearer(s.token(t, managerA)))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	lead := decode[dto.LeadResponse](t, resp)
	assert.Equal(t, tenantA, lead.ClientID)
	assert.Equal(t, "new", lead.Status)
	assert.Equal(t, "medium", lead.Priority)

	resp = s.do(t, http.MethodPost, "/api/client/leads", map[string]any{
		"first_name": "Jan",
		"company":    "Kowalski",
		"email":      "JAN@kowalski.pl",
	}, bearer(s.token(t, managerA)))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLeads_CreateValidacion(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPost, "/api/client/leads", map[string]any{"first_name": "J"}, bearer(s.token(t, managerA)))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[struct {
		Code    string              `json:"code"`
		Details map[string][]string `json:"details"`
	}](t, resp)
	assert.Equal(t, apphttp.CodeValidation, body.Code)
	assert.Contains(t, body.Details, "email")
	assert.Contains(t, body.Details, "company")
}

// Listado y detalle nunca cruzan agencias, aunque la query pida otra.
func TestLeads_AislamientoEntreAgencias(t *testing.T) {
	s := newServer(t)
	tokA, tokB := s.token(t, managerA), s.token(t, managerB)
	leadA := createLead(t, s, tokA, "a@cliente.pl")
	createLead(t, s, tokB, "b@cliente.pl")

	resp := s.do(t, http.MethodGet, "/api/client/leads?client_id="+tenantB, nil, bearer(tokA))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.LeadListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, leadA.ID, list.Items[0].ID)
	assert.Equal(t, 1, list.Page.Total)

	resp = s.do(t, http.MethodGet, "/api/client/leads/"+leadA.ID, nil, bearer(tokB))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodPatch, "/api/client/leads/"+leadA.ID+"/priority", map[string]string{"priority": "high"}, bearer(tokB))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// Un cambio de estado deja una actividad status_change; desde un estado terminal → 409.
func TestLeads_CambioDeEstado(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	lead := createLead(t, s, tok, "estado@cliente.pl")

	resp := s.do(t, http.MethodPatch, "/api/client/leads/"+lead.ID, map[string]any{"status": "contacted"}, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "contacted", decode[dto.LeadResponse](t, resp).Status)

	resp = s.do(t, http.MethodGet, "/api/client/leads/"+lead.ID+"/activities", nil, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	acts := decode[[]dto.ActivityResponse](t, resp)
	require.NotEmpty(t, acts)
	assert.Equal(t, "status_change", acts[0].Type)

	// PATCH con el id en el cuerpo
	resp = s.do(t, http.MethodPatch, "/api/client/leads", map[string]any{"id": lead.ID, "status": "closed"}, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	closed := decode[dto.LeadResponse](t, resp)
	assert.Equal(t, "closed", closed.Status)
	assert.Equal(t, 100, closed.ClosingProbability)

	resp = s.do(t, http.MethodPatch, "/api/client/leads/"+lead.ID, map[string]any{"status": "new"}, bearer(tok))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLeads_PatchSinID(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPatch, "/api/client/leads", map[string]any{"status": "contacted"}, bearer(s.token(t, managerA)))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[struct {
		Details map[string][]string `json:"details"`
	}](t, resp)
	assert.Contains(t, body.Details, "id")
}

// Solo se puede asignar a usuarios de la misma agencia.
func TestLeads_Asignacion(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	lead := createLead(t, s, tok, "asignar@cliente.pl")

	resp := s.do(t, http.MethodPatch, "/api/client/leads/"+lead.ID+"/assign", map[string]string{"assigned_to": managerB}, bearer(tok))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPatch, "/api/client/leads/"+lead.ID+"/assign", map[string]string{"assigned_to": agentA1}, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.LeadResponse](t, resp)
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, agentA1, *got.AssignedTo)
}

func TestLeads_CalificarYActividadManual(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	lead := createLead(t, s, tok, "calificar@cliente.pl")

	resp := s.do(t, http.MethodPost, "/api/client/leads/"+lead.ID+"/qualify", map[string]any{
		"industry": "retail",
		"budget":   "10k-50k",
	}, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.LeadResponse](t, resp)
	assert.Equal(t, "qualified", got.Status)
	assert.NotNil(t, got.QualifiedAt)

	resp = s.do(t, http.MethodPost, "/api/client/leads/"+lead.ID+"/activities", map[string]any{
		"type":        "call",
		"description": "Llamada de descubrimiento",
	}, bearer(tok))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "call", decode[dto.ActivityResponse](t, resp).Type)

	resp = s.do(t, http.MethodPost, "/api/client/leads/"+lead.ID+"/activities", map[string]any{
		"type":        "status_change",
		"description": "no permitido a mano",
	}, bearer(tok))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLeads_Stats(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	l1 := createLead(t, s, tok, "s1@cliente.pl")
	createLead(t, s, tok, "s2@cliente.pl")
	s.do(t, http.MethodPatch, "/api/client/leads/"+l1.ID, map[string]any{"status": "closed"}, bearer(tok))
	createLead(t, s, s.token(t, managerB), "otra@cliente.pl")

	resp := s.do(t, http.MethodGet, "/api/client/leads/stats", nil, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[dto.LeadStatsResponse](t, resp)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Closed)
	assert.Equal(t, "50", stats.ConversionRate.String())

	resp = s.do(t, http.MethodGet, "/api/admin/leads/stats", nil, bearer(s.token(t, platform)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, decode[dto.LeadStatsResponse](t, resp).Total)
}

func TestLeads_AdminFiltraPorAgencia(t *testing.T) {
	s := newServer(t)
	createLead(t, s, s.token(t, managerA), "a1@cliente.pl")
	createLead(t, s, s.token(t, managerB), "b1@cliente.pl")

	resp := s.do(t, http.MethodGet, "/api/admin/leads?client_id="+tenantB, nil, bearer(s.token(t, platform)))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.LeadListResponse](t, resp)
	require.Len(t, list.Items, 1)
	assert.Equal(t, tenantB, list.Items[0].ClientID)
}

// Importación no transaccional: errores por fila sin abortar el lote.
func TestLeads_ImportJSON(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	createLead(t, s, tok, "existe@cliente.pl")

	resp := s.do(t, http.MethodPost, "/api/client/leads/import", map[string]any{
		"leads": []map[string]any{
			{"firstName": "Ana", "email": "ana@cliente.pl"},
			{"first_name": "Sin email"},
			{"first_name": "Dup", "email": "EXISTE@cliente.pl"},
		},
	}, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[dto.ImportResult](t, resp)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Row)
}

func TestLeads_PreviewCSVMultipart(t *testing.T) {
	s := newServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "leads.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("First Name,E-mail,Company\nAna,ana@cliente.pl,ACME\nBob,no-es-email,ACME\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/client/leads/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token(t, managerA))
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[dto.CSVPreviewResponse](t, resp)
	assert.Equal(t, []string{"first_name", "email", "company"}, out.Headers)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 1, out.Valid)
	assert.Equal(t, 1, out.Invalid)
	assert.Contains(t, out.Rows[1].Errors, "email")

	// la previsualización no escribe
	resp = s.do(t, http.MethodGet, "/api/client/leads", nil, bearer(s.token(t, managerA)))
	assert.Empty(t, decode[dto.LeadListResponse](t, resp).Items)
}

func TestLeads_PreviewCSVSinArchivo(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPut, "/api/client/leads/import", []byte(`{}`), bearer(s.token(t, managerA)))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[struct {
		Details map[string][]string `json:"details"`
	}](t, resp)
	assert.Contains(t, body.Details, "file")
}

func TestLeads_ExportCSV(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	createLead(t, s, tok, "csv@cliente.pl")
	createLead(t, s, s.token(t, managerB), "ajeno@cliente.pl")

	resp := s.do(t, http.MethodGet, "/api/client/leads/export?format=csv", nil, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "csv@cliente.pl")
	assert.NotContains(t, body.String(), "ajeno@cliente.pl")

	resp = s.do(t, http.MethodGet, "/api/client/leads/export?format=xlsx", nil, bearer(tok))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLeads_ExportPDF(t *testing.T) {
	s := newServer(t)
	tok := s.token(t, managerA)
	createLead(t, s, tok, "pdf@cliente.pl")

	resp := s.do(t, http.MethodGet, "/api/client/leads/export?format=pdf", nil, bearer(tok))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body.Bytes(), []byte("%PDF")))
}
