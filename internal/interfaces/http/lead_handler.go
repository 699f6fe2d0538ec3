package http

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agencia-leads-api/internal/application/dto"
	"github.com/jhoicas/agencia-leads-api/internal/application/usecase"
	"github.com/jhoicas/agencia-leads-api/internal/domain"
	"github.com/jhoicas/agencia-leads-api/pkg/logger"
)

// LeadHandler API de leads del portal. La agencia sale siempre del contexto de confianza;
// cualquier client_id del cuerpo o la query se ignora.
type LeadHandler struct {
	leads  *usecase.LeadUseCase
	imp    *usecase.ImportUseCase
	export *usecase.ExportUseCase
	log    *logger.Logger
}

// NewLeadHandler construye el handler.
func NewLeadHandler(leads *usecase.LeadUseCase, imp *usecase.ImportUseCase, export *usecase.ExportUseCase, log *logger.Logger) *LeadHandler {
	return &LeadHandler{leads: leads, imp: imp, export: export, log: log}
}

// List godoc
// @Summary      Listar leads de la agencia
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "Estado"
// @Param        priority     query  string  false  "Prioridad"
// @Param        assigned_to  query  string  false  "Agente asignado"
// @Param        source       query  string  false  "Canal"
// @Param        search       query  string  false  "Texto en nombre, empresa o email"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LeadListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/client/leads [get]
func (h *LeadHandler) List(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	in, err := parseLeadQuery(c)
	if err != nil {
		return badRequest(c, "parámetros de consulta inválidos")
	}
	out, err := h.leads.List(c.UserContext(), actor.TenantID, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear lead
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLeadRequest  true  "Datos del lead"
// @Success      201   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/client/leads [post]
func (h *LeadHandler) Create(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.CreateLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	in.ClientID = ""
	out, err := h.leads.Create(c.UserContext(), actor, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Get godoc
// @Summary      Obtener lead
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lead"
// @Success      200  {object}  dto.LeadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/client/leads/{id} [get]
func (h *LeadHandler) Get(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	out, err := h.leads.Get(c.UserContext(), actor.TenantID, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar lead
// @Description  Actualización parcial. Un cambio de estado registra una actividad status_change.
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del lead"
// @Param        body  body  dto.UpdateLeadRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/client/leads/{id} [patch]
func (h *LeadHandler) Update(c *fiber.Ctx) error {
	return h.update(c, c.Params("id"))
}

// UpdateByBody godoc
// @Summary      Actualizar lead (id en el cuerpo)
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.UpdateLeadRequest  true  "id y campos a cambiar"
// @Success      200   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/client/leads [patch]
func (h *LeadHandler) UpdateByBody(c *fiber.Ctx) error {
	return h.update(c, "")
}

func (h *LeadHandler) update(c *fiber.Ctx, id string) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.UpdateLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	in.ClientID = ""
	if id == "" {
		id = strings.TrimSpace(in.ID)
	}
	if id == "" {
		ve := domain.NewValidationError()
		ve.Add("id", "es obligatorio")
		return respondError(c, h.log, ve)
	}
	out, err := h.leads.Update(c.UserContext(), actor, id, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdatePriority godoc
// @Summary      Cambiar prioridad
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del lead"
// @Param        body  body  dto.UpdatePriorityRequest  true  "Prioridad"
// @Success      200   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/client/leads/{id}/priority [patch]
func (h *LeadHandler) UpdatePriority(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.UpdatePriorityRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	out, err := h.leads.UpdatePriority(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Assign godoc
// @Summary      Asignar lead a un agente de la agencia
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del lead"
// @Param        body  body  dto.AssignLeadRequest  true  "assigned_to (vacío desasigna)"
// @Success      200   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/client/leads/{id}/assign [patch]
func (h *LeadHandler) Assign(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.AssignLeadRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	out, err := h.leads.Assign(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Qualify godoc
// @Summary      Calificar lead
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lead"
// @Param        body  body  object  true  "Datos de calificación (camelCase o snake_case)"
// @Success      200   {object}  dto.LeadResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/client/leads/{id}/qualify [post]
func (h *LeadHandler) Qualify(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var data map[string]any
	if err := c.BodyParser(&data); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	if inner, ok := data["qualificationData"].(map[string]any); ok {
		data = inner
	}
	out, err := h.leads.Qualify(c.UserContext(), actor, c.Params("id"), data)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Stats godoc
// @Summary      Métricas del pipeline de la agencia
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.LeadStatsResponse
// @Router       /api/client/leads/stats [get]
func (h *LeadHandler) Stats(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	out, err := h.leads.Stats(c.UserContext(), &actor.TenantID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListActivities godoc
// @Summary      Actividades de un lead
// @Tags         leads
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del lead"
// @Param        limit  query  int     false  "Límite"  default(50)
// @Success      200    {array}  dto.ActivityResponse
// @Failure      404    {object}  dto.ErrorResponse
// @Router       /api/client/leads/{id}/activities [get]
func (h *LeadHandler) ListActivities(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out, err := h.leads.ListActivities(c.UserContext(), actor.TenantID, c.Params("id"), limit)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// AddActivity godoc
// @Summary      Registrar llamada, email, reunión o nota
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del lead"
// @Param        body  body  dto.CreateActivityRequest  true  "Actividad"
// @Success      201   {object}  dto.ActivityResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/client/leads/{id}/activities [post]
func (h *LeadHandler) AddActivity(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.CreateActivityRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	out, err := h.leads.AddActivity(c.UserContext(), actor, c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Import godoc
// @Summary      Importar leads en bloque
// @Description  No transaccional: cada fila se procesa por separado y los errores se informan por fila.
// @Tags         leads
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ImportRequest  true  "Filas y opciones"
// @Success      200   {object}  dto.ImportResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/client/leads/import [post]
func (h *LeadHandler) Import(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	var in dto.ImportRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	out, err := h.imp.Import(c.UserContext(), actor, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// PreviewCSV godoc
// @Summary      Previsualizar CSV de importación
// @Description  Convierte el CSV a filas JSON con sus errores. No escribe nada.
// @Tags         leads
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Archivo CSV (máx. 5 MB)"
// @Success      200   {object}  dto.CSVPreviewResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/client/leads/import [put]
func (h *LeadHandler) PreviewCSV(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), "text/csv") {
		out, err := h.imp.PreviewCSV(c.UserContext(), actor, bytes.NewReader(c.Body()))
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(out)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		ve := domain.NewValidationError()
		ve.Add("file", "se requiere un archivo CSV en el campo file")
		return respondError(c, h.log, ve)
	}
	if fh.Size > usecase.MaxImportBytes {
		ve := domain.NewValidationError()
		ve.Add("file", fmt.Sprintf("el archivo supera %d MB", usecase.MaxImportBytes>>20))
		return respondError(c, h.log, ve)
	}
	f, err := fh.Open()
	if err != nil {
		return respondError(c, h.log, fmt.Errorf("abrir archivo subido: %w", err))
	}
	defer f.Close()
	out, err := h.imp.PreviewCSV(c.UserContext(), actor, f)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Export godoc
// @Summary      Exportar leads
// @Tags         leads
// @Security     Bearer
// @Produce      text/csv
// @Produce      application/pdf
// @Param        format  query  string  false  "csv o pdf"  default(csv)
// @Param        status  query  string  false  "Estado"
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/client/leads/export [get]
func (h *LeadHandler) Export(c *fiber.Ctx) error {
	actor, ok := trustedActor(c)
	if !ok {
		return missingTrust(c)
	}
	in, err := parseLeadQuery(c)
	if err != nil {
		return badRequest(c, "parámetros de consulta inválidos")
	}
	file, err := h.export.Export(c.UserContext(), actor.TenantID, c.Query("format"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	return c.Send(file.Body)
}

// parseLeadQuery filtros del listado; client_id de la query nunca se usa en rutas de agencia.
func parseLeadQuery(c *fiber.Ctx) (dto.LeadListRequest, error) {
	var in dto.LeadListRequest
	if err := c.QueryParser(&in); err != nil {
		return in, err
	}
	in.ClientID = ""
	return in, nil
}
