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

// ConsentimientoController conduce una sesión del asistente de circular
// digital: transiciones de paso, ediciones del payload, firma y el
// protocolo previsualizar/confirmar.
type ConsentimientoController struct {
	rootcontrollers.BaseController
}

// GetEstado retorna la vista actual de la sesión.
func (c *ConsentimientoController) GetEstado() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().Estado(familiarID, sesionID)
	c.respond(data, err, "error consultando la sesión")
}

// PostAvanzar mueve al siguiente paso si la guarda del actual lo permite.
func (c *ConsentimientoController) PostAvanzar() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().Avanzar(familiarID, sesionID)
	c.respond(data, err, "error avanzando de paso")
}

// PostRetroceder vuelve al paso anterior.
func (c *ConsentimientoController) PostRetroceder() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().Retroceder(familiarID, sesionID)
	c.respond(data, err, "error retrocediendo de paso")
}

// PostCancelar abandona el asistente sin efecto en servidor.
func (c *ConsentimientoController) PostCancelar() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().Cancelar(familiarID, sesionID)
	c.respond(data, err, "error cancelando la sesión")
}

// PutSalud aplica ediciones del perfil de salud.
func (c *ConsentimientoController) PutSalud() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	var body internaldto.SaludUpdate
	if err := c.ParseJSONBody(&body); err != nil {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "cuerpo inválido", err), "cuerpo inválido")
		return
	}
	data, err := internalservices.Consentimiento().ActualizarSalud(familiarID, sesionID, body.Campos)
	c.respond(data, err, "error actualizando salud")
}

// PostContacto añade un contacto de emergencia en blanco.
func (c *ConsentimientoController) PostContacto() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().AgregarContacto(familiarID, sesionID)
	c.respond(data, err, "error agregando contacto")
}

// DeleteContacto elimina el contacto indicado por orden.
func (c *ConsentimientoController) DeleteContacto() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	orden, ok := c.parseOrden()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().QuitarContacto(familiarID, sesionID, orden)
	c.respond(data, err, "error quitando contacto")
}

// PutContacto edita un campo del contacto indicado por orden.
func (c *ConsentimientoController) PutContacto() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	orden, ok := c.parseOrden()
	if !ok {
		return
	}
	var body internaldto.ContactoUpdate
	if err := c.ParseJSONBody(&body); err != nil {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "cuerpo inválido", err), "cuerpo inválido")
		return
	}
	data, err := internalservices.Consentimiento().ActualizarContacto(familiarID, sesionID, orden, body.Campo, body.Valor)
	c.respond(data, err, "error actualizando contacto")
}

// PutCampo registra la respuesta a un campo custom.
func (c *ConsentimientoController) PutCampo() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	nombre := strings.TrimSpace(c.Ctx.Input.Param(":nombre"))
	if nombre == "" {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "nombre de campo requerido", nil), "nombre de campo requerido")
		return
	}
	var body internaldto.CampoRespuesta
	if err := c.ParseJSONBody(&body); err != nil {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "cuerpo inválido", err), "cuerpo inválido")
		return
	}
	data, err := internalservices.Consentimiento().ResponderCampo(familiarID, sesionID, nombre, body.Valor)
	c.respond(data, err, "error registrando la respuesta")
}

// PutCondiciones fija la aceptación de condiciones y la bandera de
// actualización del perfil.
func (c *ConsentimientoController) PutCondiciones() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	var body internaldto.CondicionesUpdate
	if err := c.ParseJSONBody(&body); err != nil {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "cuerpo inválido", err), "cuerpo inválido")
		return
	}
	data, err := internalservices.Consentimiento().FijarCondiciones(familiarID, sesionID, body.AceptaCondiciones, body.ActualizarPerfil)
	c.respond(data, err, "error actualizando condiciones")
}

// PutFirma aplica trazos al motor de captura y reporta el estado de la
// validación de umbral.
func (c *ConsentimientoController) PutFirma() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	var body internaldto.FirmaUpdate
	if err := c.ParseJSONBody(&body); err != nil {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "cuerpo inválido", err), "cuerpo inválido")
		return
	}
	data, err := internalservices.Consentimiento().RegistrarFirma(familiarID, sesionID, body)
	if err != nil {
		c.respondError(err, "error registrando la firma")
		return
	}
	resp := internalhelpers.Ok(data)
	c.writeJSON(resp.Status, resp)
}

// PostConfirmarFirma ejecuta Firma→Revision y dispara la previsualización.
func (c *ConsentimientoController) PostConfirmarFirma() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().ConfirmarFirma(c.Ctx.Request.Context(), familiarID, sesionID)
	c.respond(data, err, "error confirmando la firma")
}

// PostPrevisualizar reintenta la fase de render desde Revision.
func (c *ConsentimientoController) PostPrevisualizar() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().Previsualizar(c.Ctx.Request.Context(), familiarID, sesionID)
	c.respond(data, err, "error generando la previsualización")
}

// PostCorregir vuelve de Revision a Resumen preservando lo capturado.
func (c *ConsentimientoController) PostCorregir() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	data, err := internalservices.Consentimiento().CorregirDatos(familiarID, sesionID)
	c.respond(data, err, "error volviendo al resumen")
}

// PostConfirmar ejecuta la fase de firma persistente.
func (c *ConsentimientoController) PostConfirmar() {
	familiarID, sesionID, ok := c.sesionScope()
	if !ok {
		return
	}
	headers := internalhelpers.CopyRequestHeaders(c.Ctx)
	data, err := internalservices.Consentimiento().Confirmar(c.Ctx.Request.Context(), headers, familiarID, sesionID)
	c.respond(data, err, "error enviando la circular")
}

func (c *ConsentimientoController) sesionScope() (int64, string, bool) {
	familiarID, ok := requireFamiliar(&c.BaseController)
	if !ok {
		return 0, "", false
	}
	sesionID := strings.TrimSpace(c.Ctx.Input.Param(":id"))
	if sesionID == "" {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "sesión requerida", nil), "sesión requerida")
		return 0, "", false
	}
	return familiarID, sesionID, true
}

func (c *ConsentimientoController) parseOrden() (int, bool) {
	raw := strings.TrimSpace(c.Ctx.Input.Param(":orden"))
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		c.respondError(helpers.NewAppError(http.StatusBadRequest, "orden invalido", err), "orden invalido")
		return 0, false
	}
	return val, true
}

func (c *ConsentimientoController) respond(data *internaldto.EstadoSesionDTO, err error, fallback string) {
	if err != nil {
		c.respondError(err, fallback)
		return
	}
	resp := internalhelpers.Ok(data)
	c.writeJSON(resp.Status, resp)
}

func (c *ConsentimientoController) respondError(err error, fallback string) {
	appErr := helpers.AsAppError(err, fallback)
	resp := internalhelpers.Fail(appErr.Status, appErr.Message)
	c.writeJSON(resp.Status, resp)
}

func (c *ConsentimientoController) writeJSON(status int, payload internaldto.APIResponseDTO) {
	c.Ctx.Output.SetStatus(status)
	c.Data["json"] = payload
	_ = c.ServeJSON()
}
