package controllers

import (
	"net/http"
	"strconv"
	"strings"

	rootcontrollers "github.com/grupoazimut/circulares_mid/controllers"
	internalhelpers "github.com/grupoazimut/circulares_mid/internal/helpers"
)

// requireFamiliar resuelve el familiar autenticado desde los claims del
// token; en modo dev admite el query param familiar_id.
func requireFamiliar(c *rootcontrollers.BaseController) (int64, bool) {
	if id, err := internalhelpers.GetFamiliarID(c.Ctx); err == nil {
		return id, true
	}

	raw := strings.TrimSpace(c.GetString("familiar_id"))
	if raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			return id, true
		}
	}

	resp := internalhelpers.Fail(http.StatusUnauthorized, "familiar no autenticado")
	c.Ctx.Output.SetStatus(resp.Status)
	c.Data["json"] = resp
	_ = c.ServeJSON()
	return 0, false
}
