package clients

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/models"
	rootservices "github.com/grupoazimut/circulares_mid/services"
)

// CircularesCRUDClient envuelve las operaciones contra el servicio de
// circulares que el MID necesita: la configuración de consentimiento y la
// persistencia opcional del perfil de salud editado.
type CircularesCRUDClient struct {
	cfg rootservices.Config
}

var (
	circularesClient     *CircularesCRUDClient
	circularesClientOnce sync.Once
)

// CircularesCRUD retorna un cliente singleton listo para llamar al servicio CRUD.
func CircularesCRUD() *CircularesCRUDClient {
	circularesClientOnce.Do(func() {
		circularesClient = &CircularesCRUDClient{
			cfg: rootservices.GetConfig(),
		}
	})
	return circularesClient
}

// GetConsentConfig trae el agregado completo para montar el asistente:
// circular, campos custom, perfil de salud y contactos previos, educando,
// familiar y la respuesta existente si la circular ya fue firmada.
func (c *CircularesCRUDClient) GetConsentConfig(ctx context.Context, circularID, educandoID int64, headers map[string]string) (*models.ConsentConfig, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	endpoint := rootservices.BuildURL(
		c.cfg.CircularesCRUDBaseURL,
		"circulares", strconv.FormatInt(circularID, 10),
		"consentimiento",
	) + "?educando_id=" + strconv.FormatInt(educandoID, 10)

	var cfg models.ConsentConfig
	if err := helpers.DoJSONWithHeaders("GET", endpoint, headers, nil, &cfg, c.cfg.RequestTimeout, true); err != nil {
		if helpers.IsHTTPError(err, http.StatusNotFound) {
			return nil, helpers.NewAppError(http.StatusNotFound, "circular no encontrada", err)
		}
		return nil, helpers.AsAppError(err, "error consultando la configuración de la circular")
	}
	if cfg.Circular.Id == 0 {
		cfg.Circular.Id = circularID
	}
	if cfg.Educando.Id == 0 {
		cfg.Educando.Id = educandoID
	}
	return &cfg, nil
}

// ActualizarPerfilSalud persiste el perfil de salud editado en sesión.
// Se invoca solo tras un confirmar exitoso con la bandera actualizar_perfil.
func (c *CircularesCRUDClient) ActualizarPerfilSalud(ctx context.Context, educandoID int64, perfil models.PerfilSaludData, headers map[string]string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	endpoint := rootservices.BuildURL(
		c.cfg.CircularesCRUDBaseURL,
		"educandos", strconv.FormatInt(educandoID, 10),
		"perfil_salud",
	)

	var updated map[string]interface{}
	if err := helpers.DoJSONWithHeaders("PUT", endpoint, headers, perfil, &updated, c.cfg.RequestTimeout, true); err != nil {
		return helpers.AsAppError(err, "error actualizando el perfil de salud")
	}
	return nil
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return helpers.NewAppError(http.StatusRequestTimeout, "contexto cancelado", err)
	}
	return nil
}
