package helpers

import (
	"net/http"
	"strings"

	roothelpers "github.com/grupoazimut/circulares_mid/helpers"
	rootservices "github.com/grupoazimut/circulares_mid/services"
)

type notificacionesClient struct{}

// Notificaciones expone el wrapper al servicio de notificaciones.
var Notificaciones = notificacionesClient{}

// Send dispara una notificación hacia un familiar. Es best-effort: si el
// servicio no está configurado retorna sin error.
func (notificacionesClient) Send(headers map[string]string, toFamiliarID int64, asunto, plantilla string, data interface{}) error {
	cfg := rootservices.GetConfig()
	if cfg.NotificacionesBaseURL == "" {
		return nil
	}
	if toFamiliarID <= 0 {
		return roothelpers.NewAppError(http.StatusBadRequest, "familiar destino inválido", nil)
	}

	if _, ok := headers["Authorization"]; !ok {
		headers = rootservices.AddOASAuth(headers)
	}

	body := map[string]interface{}{
		"FamiliarId": toFamiliarID,
		"Asunto":     strings.TrimSpace(asunto),
		"Plantilla":  strings.TrimSpace(plantilla),
		"Datos":      data,
	}

	endpoint := rootservices.BuildURL(cfg.NotificacionesBaseURL, "notificaciones")
	var response map[string]interface{}
	if err := roothelpers.DoJSONWithHeaders("POST", endpoint, headers, body, &response, cfg.RequestTimeout, true); err != nil {
		return roothelpers.AsAppError(err, "error enviando notificación")
	}
	return nil
}
