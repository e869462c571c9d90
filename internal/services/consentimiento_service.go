package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/beego/beego/v2/core/logs"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/internal/clients"
	"github.com/grupoazimut/circulares_mid/internal/consentimiento"
	internaldto "github.com/grupoazimut/circulares_mid/internal/dto"
	internalhelpers "github.com/grupoazimut/circulares_mid/internal/helpers"
	"github.com/grupoazimut/circulares_mid/internal/firma"
	"github.com/grupoazimut/circulares_mid/internal/sesiones"
	"github.com/grupoazimut/circulares_mid/models"
	rootservices "github.com/grupoazimut/circulares_mid/services"
)

// ConfiguracionClient abstrae el servicio de circulares para la capa de
// orquestación (y sus pruebas).
type ConfiguracionClient interface {
	GetConsentConfig(ctx context.Context, circularID, educandoID int64, headers map[string]string) (*models.ConsentConfig, error)
	ActualizarPerfilSalud(ctx context.Context, educandoID int64, perfil models.PerfilSaludData, headers map[string]string) error
}

// Notificador abstrae el servicio de notificaciones.
type Notificador interface {
	Send(headers map[string]string, toFamiliarID int64, asunto, plantilla string, data interface{}) error
}

// ConsentimientoService orquesta el asistente de circular digital: monta la
// sesión desde la configuración externa, aplica las ediciones sobre el
// agregador, consulta las guardas del secuenciador y conduce el protocolo
// previsualizar/confirmar.
type ConsentimientoService struct {
	store       *sesiones.Store
	config      ConfiguracionClient
	render      consentimiento.Renderizador
	firmador    consentimiento.Firmador
	notificador Notificador
	umbralFirma int
}

// NewConsentimientoService arma el servicio con colaboradores explícitos.
func NewConsentimientoService(store *sesiones.Store, config ConfiguracionClient, render consentimiento.Renderizador, firmador consentimiento.Firmador, notificador Notificador, umbralFirma int) *ConsentimientoService {
	return &ConsentimientoService{
		store:       store,
		config:      config,
		render:      render,
		firmador:    firmador,
		notificador: notificador,
		umbralFirma: umbralFirma,
	}
}

var (
	consentimientoSvc  *ConsentimientoService
	consentimientoOnce sync.Once
)

// Consentimiento retorna el servicio por defecto cableado a los clientes reales.
func Consentimiento() *ConsentimientoService {
	consentimientoOnce.Do(func() {
		cfg := rootservices.GetConfig()
		docs := clients.Documentos()
		consentimientoSvc = NewConsentimientoService(
			sesiones.NewStore(cfg.SesionTTL),
			clients.CircularesCRUD(),
			docs,
			docs,
			internalhelpers.Notificaciones,
			cfg.FirmaUmbralPuntos,
		)
	})
	return consentimientoSvc
}

// ObtenerConfig trae la configuración de consentimiento para el portal.
// Cuando existe una respuesta firmada la vista llega marcada como terminal.
func (s *ConsentimientoService) ObtenerConfig(ctx context.Context, headers map[string]string, circularID, educandoID int64) (*internaldto.ConsentConfigDTO, error) {
	cfg, err := s.config.GetConsentConfig(ctx, circularID, educandoID, headers)
	if err != nil {
		return nil, err
	}
	return &internaldto.ConsentConfigDTO{
		Circular:     cfg.Circular,
		CamposCustom: cfg.CamposCustom,
		PerfilSalud:  cfg.PerfilSalud,
		Contactos:    cfg.Contactos,
		Educando:     cfg.Educando,
		Familiar:     cfg.Familiar,
		YaFirmada:    cfg.RespuestaExistente != nil,
		Respuesta:    cfg.RespuestaExistente,
	}, nil
}

// CrearSesion abre el asistente para (circular, educando). Si ya existe una
// respuesta firmada no se crea sesión: se retorna la vista terminal con la
// fecha de firma original.
func (s *ConsentimientoService) CrearSesion(ctx context.Context, headers map[string]string, familiarID, circularID, educandoID int64) (*internaldto.EstadoSesionDTO, error) {
	if circularID <= 0 || educandoID <= 0 {
		return nil, helpers.NewAppError(http.StatusBadRequest, "circular y educando requeridos", nil)
	}

	cfg, err := s.config.GetConsentConfig(ctx, circularID, educandoID, headers)
	if err != nil {
		return nil, err
	}

	if cfg.RespuestaExistente != nil {
		return &internaldto.EstadoSesionDTO{
			Estado:    models.SesionYaFirmada,
			YaFirmada: cfg.RespuestaExistente,
		}, nil
	}

	ag := consentimiento.NewAgregador(*cfg)
	seq := consentimiento.NewSecuenciador(false)
	prot := consentimiento.NewProtocolo(s.render, s.firmador)
	motor := firma.NewMotor(s.umbralFirma)

	ses := s.store.Crear(familiarID, *cfg, ag, seq, prot, motor)
	return s.estadoDTO(ses), nil
}

// Estado retorna la vista actual de la sesión.
func (s *ConsentimientoService) Estado(familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	ses, err := s.store.Obtener(sesionID, familiarID)
	if err != nil {
		return nil, err
	}
	return s.estadoDTO(ses), nil
}

// Avanzar mueve la sesión al siguiente paso si la guarda lo permite.
func (s *ConsentimientoService) Avanzar(familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		return ses.Secuenciador.Avanzar(ses.Agregador)
	})
}

// Retroceder vuelve al paso anterior (no-op en el primero).
func (s *ConsentimientoService) Retroceder(familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		return ses.Secuenciador.Retroceder()
	})
}

// Cancelar abandona el asistente y descarta la sesión; no hay efecto en
// servidor porque las previsualizaciones nunca persisten.
func (s *ConsentimientoService) Cancelar(familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	ses, err := s.store.Obtener(sesionID, familiarID)
	if err != nil {
		return nil, err
	}
	ses.Bloquear()
	err = ses.Secuenciador.Cancelar()
	ses.Liberar()
	if err != nil {
		return nil, err
	}
	out := s.estadoDTO(ses)
	s.store.Eliminar(sesionID)
	return out, nil
}

// ActualizarSalud aplica ediciones del perfil de salud.
func (s *ConsentimientoService) ActualizarSalud(familiarID int64, sesionID string, campos map[string]interface{}) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		return ses.Agregador.ActualizarSalud(campos)
	})
}

// AgregarContacto añade un contacto en blanco (no-op con 3).
func (s *ConsentimientoService) AgregarContacto(familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		ses.Agregador.AgregarContacto()
		return nil
	})
}

// QuitarContacto elimina el contacto con el orden dado (no-op con 1).
func (s *ConsentimientoService) QuitarContacto(familiarID int64, sesionID string, orden int) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		ses.Agregador.QuitarContacto(orden)
		return nil
	})
}

// ActualizarContacto edita un campo de un contacto.
func (s *ConsentimientoService) ActualizarContacto(familiarID int64, sesionID string, orden int, campo, valor string) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		return ses.Agregador.ActualizarContacto(orden, campo, valor)
	})
}

// ResponderCampo registra la respuesta a un campo custom de la actividad.
func (s *ConsentimientoService) ResponderCampo(familiarID int64, sesionID, nombre string, valor interface{}) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		return ses.Agregador.ResponderCampo(nombre, valor)
	})
}

// FijarCondiciones actualiza la aceptación de condiciones y la bandera de
// persistencia del perfil.
func (s *ConsentimientoService) FijarCondiciones(familiarID int64, sesionID string, acepta, actualizarPerfil bool) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		ses.Agregador.FijarCondiciones(acepta, actualizarPerfil)
		return nil
	})
}

// RegistrarFirma aplica trazos (o limpieza/redimensión) al motor de captura
// y sincroniza la firma del agregador con el resultado de la validación de
// umbral: bajo umbral la firma queda ausente, sin error explícito.
func (s *ConsentimientoService) RegistrarFirma(familiarID int64, sesionID string, upd internaldto.FirmaUpdate) (*internaldto.FirmaEstadoDTO, error) {
	ses, err := s.store.Obtener(sesionID, familiarID)
	if err != nil {
		return nil, err
	}

	ses.Bloquear()
	defer ses.Liberar()

	if ses.Secuenciador.Terminal() {
		return nil, helpers.NewAppError(http.StatusConflict, "la sesión es terminal", nil)
	}

	motor := ses.Firma
	if upd.Redimensionar != nil {
		motor.Redimensionar(upd.Redimensionar.Ancho, upd.Redimensionar.Alto, upd.Redimensionar.Dpr)
	}
	if upd.Limpiar {
		motor.Limpiar()
	}
	for _, trazo := range upd.Trazos {
		motor.IniciarTrazo()
		for _, p := range trazo {
			motor.AgregarPunto(p)
		}
		motor.TerminarTrazo()
	}

	ses.Agregador.FijarFirma(motor.Exportar())

	return &internaldto.FirmaEstadoDTO{
		TotalPuntos: motor.TotalPuntos(),
		Valida:      motor.Valida(),
	}, nil
}

// ConfirmarFirma ejecuta la transición Firma→Revision y, como efecto,
// dispara la fase de previsualización. Un fallo de render deja la sesión en
// Revision con el error inline y reintento disponible.
func (s *ConsentimientoService) ConfirmarFirma(ctx context.Context, familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	ses, err := s.store.Obtener(sesionID, familiarID)
	if err != nil {
		return nil, err
	}

	ses.Bloquear()
	err = ses.Secuenciador.ConfirmarFirma(ses.Agregador)
	pay := ses.Agregador.Payload()
	ses.Liberar()
	if err != nil {
		return nil, err
	}

	if _, err := ses.Protocolo.Previsualizar(ctx, pay); err != nil {
		logs.Warn("previsualización fallida: sesion=%s err=%v", sesionID, err)
	}
	return s.estadoDTO(ses), nil
}

// Previsualizar repite la fase de render desde Revision (reintento tras un
// PreviewError). Nunca crea una respuesta persistida.
func (s *ConsentimientoService) Previsualizar(ctx context.Context, familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	ses, err := s.store.Obtener(sesionID, familiarID)
	if err != nil {
		return nil, err
	}
	ses.Bloquear()
	enRevision := ses.Secuenciador.PasoActual() == models.PasoRevision && !ses.Secuenciador.Terminal()
	pay := ses.Agregador.Payload()
	ses.Liberar()
	if !enRevision {
		return nil, helpers.NewAppError(http.StatusUnprocessableEntity, "la previsualización solo está disponible en revisión", nil)
	}

	if _, err := ses.Protocolo.Previsualizar(ctx, pay); err != nil {
		logs.Warn("previsualización fallida: sesion=%s err=%v", sesionID, err)
	}
	return s.estadoDTO(ses), nil
}

// CorregirDatos vuelve de Revision a Resumen preservando todo lo capturado.
func (s *ConsentimientoService) CorregirDatos(familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	return s.transicion(familiarID, sesionID, func(ses *sesiones.Sesion) error {
		if err := ses.Secuenciador.CorregirDatos(); err != nil {
			return err
		}
		ses.Protocolo.Reiniciar()
		return nil
	})
}

// Confirmar ejecuta la fase de firma persistente. El candado de un solo
// vuelo del protocolo rechaza confirmaciones concurrentes; un fallo remoto
// queda inline en la vista y la candidatura intacta para reintentar.
func (s *ConsentimientoService) Confirmar(ctx context.Context, headers map[string]string, familiarID int64, sesionID string) (*internaldto.EstadoSesionDTO, error) {
	ses, err := s.store.Obtener(sesionID, familiarID)
	if err != nil {
		return nil, err
	}
	ses.Bloquear()
	enRevision := ses.Secuenciador.PasoActual() == models.PasoRevision && !ses.Secuenciador.Terminal()
	pay := ses.Agregador.Payload()
	ses.Liberar()
	if !enRevision {
		return nil, helpers.NewAppError(http.StatusUnprocessableEntity, "la confirmación solo está disponible en revisión", nil)
	}

	res, err := ses.Protocolo.Confirmar(ctx, pay)
	if err != nil {
		if helpers.EsConflicto(err) {
			return nil, err
		}
		// Fallo remoto: inline en Revision, payload preservado.
		return s.estadoDTO(ses), nil
	}

	ses.Bloquear()
	ses.Secuenciador.MarcarEnviada()
	ses.Liberar()

	s.postCommit(ctx, headers, ses, pay, res)
	return s.estadoDTO(ses), nil
}

// postCommit persiste el perfil editado (si se pidió) y notifica al
// familiar. Ambos son best-effort: la firma ya quedó comprometida.
func (s *ConsentimientoService) postCommit(ctx context.Context, headers map[string]string, ses *sesiones.Sesion, pay consentimiento.Payload, res models.RespuestaFirmada) {
	if pay.ActualizarPerfil {
		if err := s.config.ActualizarPerfilSalud(ctx, pay.EducandoId, pay.DatosMedicos, headers); err != nil {
			logs.Warn("no se pudo actualizar el perfil de salud: educando=%d err=%v", pay.EducandoId, err)
		}
	}
	if s.notificador != nil {
		datos := map[string]interface{}{
			"CircularId": res.CircularId,
			"EducandoId": res.EducandoId,
			"FechaFirma": res.FechaFirma,
			"PdfUrl":     res.PdfUrl,
		}
		if err := s.notificador.Send(headers, ses.FamiliarId, "Circular firmada", "circular_firmada", datos); err != nil {
			logs.Warn("no se pudo notificar la firma: familiar=%d err=%v", ses.FamiliarId, err)
		}
	}
}

// transicion aplica una mutación serializada sobre la sesión y retorna la
// vista resultante.
func (s *ConsentimientoService) transicion(familiarID int64, sesionID string, fn func(*sesiones.Sesion) error) (*internaldto.EstadoSesionDTO, error) {
	ses, err := s.store.Obtener(sesionID, familiarID)
	if err != nil {
		return nil, err
	}
	ses.Bloquear()
	err = fn(ses)
	ses.Liberar()
	if err != nil {
		return nil, err
	}
	return s.estadoDTO(ses), nil
}

// estadoDTO toma el candado de la sesión: la vista se arma sobre estructuras
// que los escritores mutan bajo el mismo candado.
func (s *ConsentimientoService) estadoDTO(ses *sesiones.Sesion) *internaldto.EstadoSesionDTO {
	ses.Bloquear()
	defer ses.Liberar()

	ag := ses.Agregador
	return &internaldto.EstadoSesionDTO{
		SesionId:          ses.Id,
		Estado:            ses.Secuenciador.Estado(),
		Paso:              ses.Secuenciador.PasoActual(),
		Protocolo:         ses.Protocolo.Estado(),
		Salud:             ag.Salud(),
		Contactos:         ag.Contactos(),
		Respuestas:        ag.Respuestas(),
		TieneFirma:        ag.TieneFirma(),
		AceptaCondiciones: ag.AceptaCondiciones(),
		ActualizarPerfil:  ag.ActualizaPerfil(),
		PdfPreview:        ses.Protocolo.PdfPreview(),
		UltimoError:       ses.Protocolo.UltimoError(),
		Resultado:         ses.Protocolo.Resultado(),
	}
}
