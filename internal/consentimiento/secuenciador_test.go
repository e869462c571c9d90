package consentimiento

import (
	"testing"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/models"
)

func agregadorCompleto(t *testing.T) *Agregador {
	t.Helper()
	a := NewAgregador(configBase())
	if err := a.ResponderCampo("autoriza_coche", true); err != nil {
		t.Fatalf("responder: %v", err)
	}
	if err := a.ResponderCampo("observaciones", "ninguna"); err != nil {
		t.Fatalf("responder: %v", err)
	}
	a.FijarCondiciones(true, false)
	a.FijarFirma("data:image/png;base64,xxxx")
	return a
}

func avanzarHasta(t *testing.T, s *Secuenciador, a *Agregador, paso string) {
	t.Helper()
	for i := 0; i < 10 && s.PasoActual() != paso; i++ {
		if err := s.Avanzar(a); err != nil {
			t.Fatalf("avanzando hacia %s desde %s: %v", paso, s.PasoActual(), err)
		}
	}
	if s.PasoActual() != paso {
		t.Fatalf("no se alcanzó el paso %s (actual %s)", paso, s.PasoActual())
	}
}

func TestSecuenciaNominal(t *testing.T) {
	a := agregadorCompleto(t)
	s := NewSecuenciador(false)

	esperados := []string{
		models.PasoInformacion,
		models.PasoEducando,
		models.PasoSalud,
		models.PasoContactos,
		models.PasoAutorizaciones,
		models.PasoResumen,
		models.PasoFirma,
	}
	for i, paso := range esperados {
		if got := s.PasoActual(); got != paso {
			t.Fatalf("paso[%d] = %s, esperaba %s", i, got, paso)
		}
		if i < len(esperados)-1 {
			if err := s.Avanzar(a); err != nil {
				t.Fatalf("avanzar desde %s: %v", paso, err)
			}
		}
	}

	if err := s.ConfirmarFirma(a); err != nil {
		t.Fatalf("confirmar firma: %v", err)
	}
	if got := s.PasoActual(); got != models.PasoRevision {
		t.Fatalf("tras confirmar firma paso = %s, esperaba revisión", got)
	}
}

func TestRetrocederEnPrimerPasoEsNoOp(t *testing.T) {
	s := NewSecuenciador(false)
	if err := s.Retroceder(); err != nil {
		t.Fatalf("retroceder: %v", err)
	}
	if got := s.PasoActual(); got != models.PasoInformacion {
		t.Fatalf("paso = %s, esperaba información", got)
	}
}

func TestResumenExigeCondiciones(t *testing.T) {
	a := agregadorCompleto(t)
	a.FijarCondiciones(false, false)

	s := NewSecuenciador(false)
	avanzarHasta(t, s, a, models.PasoResumen)

	err := s.Avanzar(a)
	if err == nil {
		t.Fatal("resumen→firma sin aceptar condiciones debe fallar")
	}
	if !helpers.EsValidacion(err) {
		t.Fatalf("esperaba error de validación, got %v", err)
	}
	if got := s.PasoActual(); got != models.PasoResumen {
		t.Fatalf("la guarda no debe mover el paso, got %s", got)
	}

	// La completitud del resto de campos no compensa la bandera.
	a.FijarCondiciones(true, false)
	if err := s.Avanzar(a); err != nil {
		t.Fatalf("con condiciones aceptadas debe avanzar: %v", err)
	}
}

func TestFirmaExigeFirmaValida(t *testing.T) {
	a := agregadorCompleto(t)
	a.FijarFirma("")

	s := NewSecuenciador(false)
	avanzarHasta(t, s, a, models.PasoFirma)

	if err := s.ConfirmarFirma(a); err == nil {
		t.Fatal("firma→revisión sin firma debe fallar aunque acepte condiciones")
	}
	if got := s.PasoActual(); got != models.PasoFirma {
		t.Fatalf("la guarda no debe mover el paso, got %s", got)
	}

	a.FijarFirma("data:image/png;base64,xxxx")
	if err := s.ConfirmarFirma(a); err != nil {
		t.Fatalf("con firma válida debe avanzar: %v", err)
	}
}

func TestFirmaExigeObligatorios(t *testing.T) {
	a := NewAgregador(configBase())
	a.FijarCondiciones(true, false)
	a.FijarFirma("data:image/png;base64,xxxx")

	s := NewSecuenciador(false)
	avanzarHasta(t, s, a, models.PasoFirma)

	if err := s.ConfirmarFirma(a); err == nil {
		t.Fatal("con obligatorios pendientes nada viaja al servidor")
	}
}

func TestPasosConNavegacionPropiaRechazanAvanzar(t *testing.T) {
	a := agregadorCompleto(t)
	s := NewSecuenciador(false)
	avanzarHasta(t, s, a, models.PasoFirma)

	if err := s.Avanzar(a); err == nil {
		t.Fatal("el paso de firma no tiene botón genérico de avance")
	}

	if err := s.ConfirmarFirma(a); err != nil {
		t.Fatalf("confirmar firma: %v", err)
	}
	if err := s.Avanzar(a); err == nil {
		t.Fatal("revisión no tiene avance genérico")
	}
}

func TestCorregirDatosVuelveAlResumen(t *testing.T) {
	a := agregadorCompleto(t)
	s := NewSecuenciador(false)
	avanzarHasta(t, s, a, models.PasoFirma)
	if err := s.ConfirmarFirma(a); err != nil {
		t.Fatalf("confirmar firma: %v", err)
	}

	if err := s.CorregirDatos(); err != nil {
		t.Fatalf("corregir datos: %v", err)
	}
	if got := s.PasoActual(); got != models.PasoResumen {
		t.Fatalf("corregir debe volver al resumen, got %s", got)
	}
}

func TestSesionYaFirmadaEsTerminalDesdeElInicio(t *testing.T) {
	a := agregadorCompleto(t)
	s := NewSecuenciador(true)

	if got := s.Estado(); got != models.SesionYaFirmada {
		t.Fatalf("estado = %s, esperaba ya-firmada", got)
	}
	if !s.Terminal() {
		t.Fatal("ya-firmada debe ser terminal")
	}
	if err := s.Avanzar(a); err == nil {
		t.Fatal("la máquina de pasos nunca se entra con respuesta existente")
	}
	if err := s.ConfirmarFirma(a); err == nil {
		t.Fatal("confirmar firma debe rechazarse en sesión terminal")
	}
}

func TestCancelarYEnviada(t *testing.T) {
	s := NewSecuenciador(false)
	if err := s.Cancelar(); err != nil {
		t.Fatalf("cancelar: %v", err)
	}
	if got := s.Estado(); got != models.SesionCancelada {
		t.Fatalf("estado tras cancelar = %s", got)
	}

	s2 := NewSecuenciador(false)
	s2.MarcarEnviada()
	if got := s2.Estado(); got != models.SesionEnviada {
		t.Fatalf("estado tras enviar = %s", got)
	}
	if err := s2.Retroceder(); err == nil {
		t.Fatal("una sesión enviada no admite transiciones")
	}
}
