package consentimiento

import (
	"context"
	"net/http"
	"sync"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/models"
)

// Renderizador produce el documento efímero de previsualización. La llamada
// es libre de efectos: puede repetirse sin crear respuestas persistidas.
type Renderizador interface {
	Render(ctx context.Context, p Payload) (pdfBase64 string, err error)
}

// Firmador ejecuta la firma persistente. El servicio remoto es la autoridad
// sobre el rechazo de firmas duplicadas para el par (circular, educando).
type Firmador interface {
	Firmar(ctx context.Context, p Payload) (models.RespuestaFirmada, error)
}

// Protocolo implementa el commit en dos fases anidado en el paso Revision:
//
//	Idle -> PreviewCarga -> PreviewListo | PreviewError
//	PreviewListo -> Enviando -> Enviado | EnvioError
//	EnvioError -> Enviando (reintento)
//	PreviewError -> PreviewCarga (reintento)
//
// El candado de un solo vuelo es responsabilidad del cliente y se suma a la
// garantía de idempotencia del servidor.
type Protocolo struct {
	mu     sync.Mutex
	estado string

	render Renderizador
	firma  Firmador

	pdfPreview  string
	resultado   *models.RespuestaFirmada
	ultimoError string
}

// NewProtocolo crea el protocolo en estado Idle.
func NewProtocolo(render Renderizador, firma Firmador) *Protocolo {
	return &Protocolo{
		estado: models.ProtocoloIdle,
		render: render,
		firma:  firma,
	}
}

// Estado retorna el estado actual del protocolo.
func (p *Protocolo) Estado() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.estado
}

// UltimoError expone el mensaje del último fallo remoto para mostrarlo
// inline en el paso Revision.
func (p *Protocolo) UltimoError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ultimoError
}

// PdfPreview retorna el documento renderizado de la última previsualización.
func (p *Protocolo) PdfPreview() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pdfPreview
}

// Resultado retorna el artefacto terminal tras un confirmar exitoso.
func (p *Protocolo) Resultado() *models.RespuestaFirmada {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resultado
}

// Previsualizar ejecuta la fase de render. Es repetible y nunca persiste;
// un fallo deja el protocolo en PreviewError con reintento permitido.
func (p *Protocolo) Previsualizar(ctx context.Context, pay Payload) (string, error) {
	p.mu.Lock()
	switch p.estado {
	case models.ProtocoloIdle, models.ProtocoloPreviewError, models.ProtocoloPreviewListo, models.ProtocoloEnvioError:
		p.estado = models.ProtocoloPreviewCarga
	case models.ProtocoloPreviewCarga, models.ProtocoloEnviando:
		p.mu.Unlock()
		return "", helpers.NewAppError(http.StatusConflict, "operación en curso", nil)
	default:
		p.mu.Unlock()
		return "", helpers.NewAppError(http.StatusConflict, "el protocolo ya es terminal", nil)
	}
	p.mu.Unlock()

	pdf, err := p.render.Render(ctx, pay)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.estado = models.ProtocoloPreviewError
		p.ultimoError = helpers.AsAppError(err, "error generando la previsualización").Message
		return "", helpers.AsAppError(err, "error generando la previsualización")
	}
	p.estado = models.ProtocoloPreviewListo
	p.ultimoError = ""
	p.pdfPreview = pdf
	return pdf, nil
}

// Confirmar ejecuta la fase de firma persistente. Mientras hay un envío en
// vuelo cualquier confirmación adicional se rechaza; un fallo preserva el
// payload y permite reintentar con la misma candidatura.
func (p *Protocolo) Confirmar(ctx context.Context, pay Payload) (models.RespuestaFirmada, error) {
	p.mu.Lock()
	switch p.estado {
	case models.ProtocoloPreviewListo, models.ProtocoloEnvioError:
		p.estado = models.ProtocoloEnviando
	case models.ProtocoloEnviando:
		p.mu.Unlock()
		return models.RespuestaFirmada{}, helpers.NewAppError(http.StatusConflict, "envío en curso", nil)
	case models.ProtocoloEnviado:
		p.mu.Unlock()
		return models.RespuestaFirmada{}, helpers.NewAppError(http.StatusConflict, "la circular ya fue enviada", nil)
	default:
		p.mu.Unlock()
		return models.RespuestaFirmada{}, helpers.NewAppError(http.StatusConflict, "se requiere una previsualización antes de confirmar", nil)
	}
	p.mu.Unlock()

	res, err := p.firma.Firmar(ctx, pay)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.estado = models.ProtocoloEnvioError
		p.ultimoError = helpers.AsAppError(err, "error enviando la firma").Message
		return models.RespuestaFirmada{}, helpers.AsAppError(err, "error enviando la firma")
	}
	p.estado = models.ProtocoloEnviado
	p.ultimoError = ""
	p.resultado = &res
	return res, nil
}

// Reiniciar vuelve a Idle al corregir datos desde Revision. El preview
// descartado no compromete nada: nunca fue persistido.
func (p *Protocolo) Reiniciar() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.estado == models.ProtocoloEnviando || p.estado == models.ProtocoloEnviado {
		return
	}
	p.estado = models.ProtocoloIdle
	p.pdfPreview = ""
	p.ultimoError = ""
}
