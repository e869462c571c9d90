package controllers

import (
	"net/http"
	"strconv"
	"strings"

	rootcontrollers "github.com/grupoazimut/circulares_mid/controllers"
	"github.com/grupoazimut/circulares_mid/helpers"
	internaldto "github.com/grupoazimut/circulares_mid/internal/dto"
	internalhelpers "github.com/grupoazimut/circulares_mid/internal/helpers"
	internalservices "github.com/grupoazimut/circulares_mid/internal/services"
)

// CircularesController expone la configuración de consentimiento de una
// circular y la apertura del asistente.
type CircularesController struct {
	rootcontrollers.BaseController
}

// GetConsentimiento retorna el agregado de configuración para el par
// (circular, educando), marcado como terminal si ya fue firmada.
func (c *CircularesController) GetConsentimiento() {
	circularID, ok := c.parseCircularID()
	if !ok {
		return
	}
	educandoID, ok := c.requireEducando()
	if !ok {
		return
	}

	headers := internalhelpers.CopyRequestHeaders(c.Ctx)
	data, err := internalservices.Consentimiento().ObtenerConfig(c.Ctx.Request.Context(), headers, circularID, educandoID)
	if err != nil {
		c.respondError(err, "error consultando la circular")
		return
	}

	resp := internalhelpers.Ok(data)
	c.writeJSON(resp.Status, resp)
}

// PostCrearSesion abre una sesión del asistente. Con respuesta firmada
// previa retorna la vista terminal sin crear sesión.
func (c *CircularesController) PostCrearSesion() {
	circularID, ok := c.parseCircularID()
	if !ok {
		return
	}
	familiarID, ok := c.requireFamiliar()
	if !ok {
		return
	}

	var body internaldto.SesionCreate
	if err := c.ParseJSONBody(&body); err != nil {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "cuerpo inválido", err), "cuerpo inválido")
		return
	}
	if !internalhelpers.PuedeVerEducando(c.Ctx, body.EducandoId) {
		c.respondError(helpers.NewAppError(http.StatusForbidden, "educando no autorizado para este familiar", nil), "educando no autorizado")
		return
	}

	headers := internalhelpers.CopyRequestHeaders(c.Ctx)
	data, err := internalservices.Consentimiento().CrearSesion(c.Ctx.Request.Context(), headers, familiarID, circularID, body.EducandoId)
	if err != nil {
		c.respondError(err, "error abriendo el asistente")
		return
	}

	resp := internalhelpers.Creado(data)
	c.writeJSON(resp.Status, resp)
}

func (c *CircularesController) parseCircularID() (int64, bool) {
	raw := strings.TrimSpace(c.Ctx.Input.Param(":id"))
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "id invalido", err), "id invalido")
		return 0, false
	}
	return val, true
}

func (c *CircularesController) requireEducando() (int64, bool) {
	raw := strings.TrimSpace(c.GetString("educando_id"))
	if raw == "" {
		resp := internalhelpers.Fail(http.StatusBadRequest, "educando_id requerido")
		c.writeJSON(resp.Status, resp)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		resp := internalhelpers.Fail(http.StatusBadRequest, "educando_id invalido")
		c.writeJSON(resp.Status, resp)
		return 0, false
	}
	if !internalhelpers.PuedeVerEducando(c.Ctx, id) {
		resp := internalhelpers.Fail(http.StatusForbidden, "educando no autorizado para este familiar")
		c.writeJSON(resp.Status, resp)
		return 0, false
	}
	return id, true
}

func (c *CircularesController) requireFamiliar() (int64, bool) {
	return requireFamiliar(&c.BaseController)
}

func (c *CircularesController) respondError(err error, fallback string) {
	appErr := helpers.AsAppError(err, fallback)
	resp := internalhelpers.Fail(appErr.Status, appErr.Message)
	c.writeJSON(resp.Status, resp)
}

func (c *CircularesController) writeJSON(status int, payload internaldto.APIResponseDTO) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	_ = c.ServeJSON()
}
