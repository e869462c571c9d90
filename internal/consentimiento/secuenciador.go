package consentimiento

import (
	"net/http"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/models"
)

// PasoDef describe un paso del asistente: identificador, guarda para avanzar
// desde él y si el paso gobierna su propia navegación (sin botón "Siguiente").
// Tener la tabla explícita deja las reglas de gating auditables sin montar UI.
type PasoDef struct {
	Id               string
	Guarda           func(a *Agregador) error
	NavegacionPropia bool
}

// pasos es la secuencia fija del asistente de consentimiento.
var pasos = []PasoDef{
	{Id: models.PasoInformacion},
	{Id: models.PasoEducando},
	{Id: models.PasoSalud},
	{Id: models.PasoContactos},
	{Id: models.PasoAutorizaciones},
	{Id: models.PasoResumen, Guarda: guardaResumen},
	{Id: models.PasoFirma, Guarda: guardaFirma, NavegacionPropia: true},
	{Id: models.PasoRevision, NavegacionPropia: true},
}

// guardaResumen exige la aceptación de condiciones para pasar a Firma,
// independiente de la completitud del resto de campos.
func guardaResumen(a *Agregador) error {
	if !a.AceptaCondiciones() {
		return helpers.NewAppError(http.StatusUnprocessableEntity, "debe aceptar las condiciones", nil)
	}
	return nil
}

// guardaFirma exige firma válida, condiciones aceptadas y los campos
// obligatorios respondidos antes de entrar a Revision. Nada inválido se
// envía al servidor de render.
func guardaFirma(a *Agregador) error {
	if !a.TieneFirma() {
		return helpers.NewAppError(http.StatusUnprocessableEntity, "firma requerida", nil)
	}
	if !a.AceptaCondiciones() {
		return helpers.NewAppError(http.StatusUnprocessableEntity, "debe aceptar las condiciones", nil)
	}
	if pendientes := a.ObligatoriosPendientes(); len(pendientes) > 0 {
		return helpers.NewAppError(http.StatusUnprocessableEntity, "faltan autorizaciones obligatorias", nil)
	}
	return nil
}

// Secuenciador es la máquina de estados sobre los pasos del asistente.
// Nunca muta datos de negocio: solo consulta guardas del agregador y decide
// si una transición procede.
type Secuenciador struct {
	pasos  []PasoDef
	idx    int
	estado string
}

// NewSecuenciador arranca en el primer paso. Si ya existe una respuesta
// firmada para el par (circular, educando) la sesión nace terminal y la
// máquina de pasos nunca se entra.
func NewSecuenciador(yaFirmada bool) *Secuenciador {
	estado := models.SesionActiva
	if yaFirmada {
		estado = models.SesionYaFirmada
	}
	return &Secuenciador{pasos: pasos, estado: estado}
}

// PasoActual retorna el identificador del paso visible.
func (s *Secuenciador) PasoActual() string {
	return s.pasos[s.idx].Id
}

// Estado retorna el estado de sesión (activa o terminal).
func (s *Secuenciador) Estado() string {
	return s.estado
}

// Terminal indica si la sesión ya no admite transiciones.
func (s *Secuenciador) Terminal() bool {
	return s.estado != models.SesionActiva
}

// Avanzar mueve al siguiente paso si la guarda del actual lo permite.
// En el último paso, en pasos con navegación propia y en sesiones
// terminales es rechazado.
func (s *Secuenciador) Avanzar(a *Agregador) error {
	if err := s.activa(); err != nil {
		return err
	}
	actual := s.pasos[s.idx]
	if actual.NavegacionPropia {
		return helpers.NewAppError(http.StatusUnprocessableEntity, "el paso actual tiene navegación propia", nil)
	}
	if s.idx >= len(s.pasos)-1 {
		return nil
	}
	if actual.Guarda != nil {
		if err := actual.Guarda(a); err != nil {
			return err
		}
	}
	s.idx++
	return nil
}

// Retroceder vuelve al paso anterior; en el primero es no-op.
func (s *Secuenciador) Retroceder() error {
	if err := s.activa(); err != nil {
		return err
	}
	if s.idx > 0 {
		s.idx--
	}
	return nil
}

// ConfirmarFirma es la transición Firma→Revision. El servicio que la invoca
// dispara la fase de previsualización como efecto.
func (s *Secuenciador) ConfirmarFirma(a *Agregador) error {
	if err := s.activa(); err != nil {
		return err
	}
	if s.PasoActual() != models.PasoFirma {
		return helpers.NewAppError(http.StatusUnprocessableEntity, "solo disponible desde el paso de firma", nil)
	}
	if err := guardaFirma(a); err != nil {
		return err
	}
	s.idx++
	return nil
}

// CorregirDatos retorna de Revision a Resumen para ajustar datos.
func (s *Secuenciador) CorregirDatos() error {
	if err := s.activa(); err != nil {
		return err
	}
	if s.PasoActual() != models.PasoRevision {
		return helpers.NewAppError(http.StatusUnprocessableEntity, "solo disponible desde la revisión", nil)
	}
	s.idx = s.indiceDe(models.PasoResumen)
	return nil
}

// Cancelar abandona el asistente sin efecto en servidor.
func (s *Secuenciador) Cancelar() error {
	if err := s.activa(); err != nil {
		return err
	}
	s.estado = models.SesionCancelada
	return nil
}

// MarcarEnviada entra al estado terminal de envío exitoso. Solo se alcanza
// tras un confirmar aceptado por el servicio de firmas.
func (s *Secuenciador) MarcarEnviada() {
	s.estado = models.SesionEnviada
}

func (s *Secuenciador) activa() error {
	if s.estado != models.SesionActiva {
		return helpers.NewAppError(http.StatusConflict, "la sesión es terminal", nil)
	}
	return nil
}

func (s *Secuenciador) indiceDe(id string) int {
	for i, p := range s.pasos {
		if p.Id == id {
			return i
		}
	}
	return s.idx
}
