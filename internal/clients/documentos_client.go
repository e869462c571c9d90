package clients

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/internal/consentimiento"
	"github.com/grupoazimut/circulares_mid/models"
	rootservices "github.com/grupoazimut/circulares_mid/services"
)

// documentosEnv permite ajustar rutas y timeout del servicio de documentos
// sin tocar la configuración global.
type documentosEnv struct {
	RenderPath string `env:"DOCUMENTOS_RENDER_PATH" envDefault:"render"`
	FirmarPath string `env:"DOCUMENTOS_FIRMAR_PATH" envDefault:"firmar"`
	TimeoutMs  int    `env:"DOCUMENTOS_TIMEOUT_MS" envDefault:"0"`
}

// DocumentosClient habla con el servicio de render y firma de PDFs.
// Render es libre de efectos; Firmar es persistente e idempotente por par
// (circular, educando) del lado del servidor.
type DocumentosClient struct {
	cfg   rootservices.Config
	rutas documentosEnv
}

var (
	documentosClient     *DocumentosClient
	documentosClientOnce sync.Once
)

// Documentos retorna el cliente singleton del servicio de documentos.
func Documentos() *DocumentosClient {
	documentosClientOnce.Do(func() {
		var rutas documentosEnv
		if err := env.Parse(&rutas); err != nil {
			rutas = documentosEnv{RenderPath: "render", FirmarPath: "firmar"}
		}
		documentosClient = &DocumentosClient{
			cfg:   rootservices.GetConfig(),
			rutas: rutas,
		}
	})
	return documentosClient
}

func (c *DocumentosClient) timeout() time.Duration {
	if c.rutas.TimeoutMs > 0 {
		return time.Duration(c.rutas.TimeoutMs) * time.Millisecond
	}
	return c.cfg.RequestTimeout
}

// renderResponse es la respuesta del render efímero.
type renderResponse struct {
	PdfBase64 string `json:"PdfBase64"`
}

// firmarResponse es la respuesta del servicio de firmas.
type firmarResponse struct {
	PdfUrl     string `json:"PdfUrl"`
	FechaFirma string `json:"FechaFirma"`
}

// Render genera el documento efímero de previsualización. Puede invocarse
// cualquier número de veces; nunca crea una respuesta persistida.
func (c *DocumentosClient) Render(ctx context.Context, p consentimiento.Payload) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", err
	}
	endpoint := rootservices.BuildURL(c.cfg.DocumentosBaseURL, c.rutas.RenderPath)

	body := map[string]interface{}{
		"CircularId":   p.CircularId,
		"EducandoId":   p.EducandoId,
		"FirmaBase64":  p.FirmaBase64,
		"DatosMedicos": p.DatosMedicos,
		"Contactos":    p.Contactos,
		"CamposCustom": p.CamposCustom,
	}

	headers := rootservices.AddOASAuth(nil)
	var resp renderResponse
	if err := helpers.DoJSONWithHeaders("POST", endpoint, headers, body, &resp, c.timeout(), true); err != nil {
		return "", helpers.AsAppError(err, "el servicio de documentos no pudo generar la previsualización")
	}
	if resp.PdfBase64 == "" {
		return "", helpers.NewAppError(http.StatusBadGateway, "previsualización vacía del servicio de documentos", nil)
	}
	return resp.PdfBase64, nil
}

// Firmar envía la candidatura final. La petición viaja una sola vez, sin
// reintento automático: el servidor es la autoridad sobre firmas duplicadas
// y un timeout se reporta como error reintentable por el usuario.
func (c *DocumentosClient) Firmar(ctx context.Context, p consentimiento.Payload) (models.RespuestaFirmada, error) {
	if err := ctxErr(ctx); err != nil {
		return models.RespuestaFirmada{}, err
	}
	endpoint := rootservices.BuildURL(c.cfg.DocumentosBaseURL, c.rutas.FirmarPath)

	body := map[string]interface{}{
		"CircularId":        p.CircularId,
		"EducandoId":        p.EducandoId,
		"DatosMedicos":      p.DatosMedicos,
		"Contactos":         p.Contactos,
		"CamposCustom":      p.CamposCustom,
		"FirmaBase64":       p.FirmaBase64,
		"FirmaTipo":         p.FirmaTipo,
		"AceptaCondiciones": p.AceptaCondiciones,
		"ActualizarPerfil":  p.ActualizarPerfil,
	}

	headers := rootservices.AddOASAuth(nil)
	var resp firmarResponse
	if err := helpers.DoJSONSinReintentos("POST", endpoint, headers, body, &resp, c.timeout(), true); err != nil {
		if helpers.IsHTTPError(err, http.StatusConflict) {
			return models.RespuestaFirmada{}, helpers.NewAppError(http.StatusConflict, "la circular ya fue firmada para este educando", err)
		}
		return models.RespuestaFirmada{}, helpers.AsAppError(err, "error enviando la firma")
	}

	fecha := resp.FechaFirma
	if fecha == "" {
		fecha = time.Now().UTC().Format(time.RFC3339)
	}
	return models.RespuestaFirmada{
		CircularId: p.CircularId,
		EducandoId: p.EducandoId,
		FechaFirma: fecha,
		PdfUrl:     resp.PdfUrl,
	}, nil
}
