package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/grupoazimut/circulares_mid/internal/consentimiento"
	internaldto "github.com/grupoazimut/circulares_mid/internal/dto"
	"github.com/grupoazimut/circulares_mid/internal/firma"
	"github.com/grupoazimut/circulares_mid/internal/sesiones"
	"github.com/grupoazimut/circulares_mid/models"
)

type configFake struct {
	cfg               models.ConsentConfig
	firmada           *models.RespuestaExistente
	perfilActualizado *models.PerfilSaludData
}

func (f *configFake) GetConsentConfig(_ context.Context, circularID, educandoID int64, _ map[string]string) (*models.ConsentConfig, error) {
	out := f.cfg
	out.Circular.Id = circularID
	out.Educando.Id = educandoID
	out.RespuestaExistente = f.firmada
	return &out, nil
}

func (f *configFake) ActualizarPerfilSalud(_ context.Context, _ int64, perfil models.PerfilSaludData, _ map[string]string) error {
	f.perfilActualizado = &perfil
	return nil
}

type docsFake struct {
	renderFallos int
	firmarFallos int
	persistidas  int
}

func (d *docsFake) Render(_ context.Context, _ consentimiento.Payload) (string, error) {
	if d.renderFallos > 0 {
		d.renderFallos--
		return "", errors.New("render caído")
	}
	return "JVBERi0xLjQ=", nil
}

func (d *docsFake) Firmar(_ context.Context, p consentimiento.Payload) (models.RespuestaFirmada, error) {
	if d.firmarFallos > 0 {
		d.firmarFallos--
		return models.RespuestaFirmada{}, errors.New("firmador caído")
	}
	d.persistidas++
	return models.RespuestaFirmada{
		CircularId: p.CircularId,
		EducandoId: p.EducandoId,
		FechaFirma: "2026-03-14T10:00:00Z",
		PdfUrl:     "https://docs.example/firmas/7-21.pdf",
	}, nil
}

type notificadorFake struct {
	enviadas int
}

func (n *notificadorFake) Send(_ map[string]string, _ int64, _, _ string, _ interface{}) error {
	n.enviadas++
	return nil
}

func configJuan() models.ConsentConfig {
	return models.ConsentConfig{
		Circular: models.CircularConfig{Titulo: "Acampada de otoño", RequiereFirma: true},
		Educando: models.Educando{NombreCompleto: "Juan Pérez"},
		Familiar: models.Familiar{Id: 3, NombreCompleto: "Ana Pérez"},
		CamposCustom: []models.CampoCustom{
			{Id: 1, NombreCampo: "autoriza_coche", TipoCampo: models.CampoTipoCheckbox, Obligatorio: true},
			{Id: 2, NombreCampo: "autoriza_fotos", TipoCampo: models.CampoTipoCheckbox, Obligatorio: false},
			{Id: 3, NombreCampo: "observaciones", TipoCampo: models.CampoTipoTextarea, Obligatorio: true},
		},
	}
}

func servicioPrueba(cfgFake *configFake, docs *docsFake, notif *notificadorFake) *ConsentimientoService {
	return NewConsentimientoService(sesiones.NewStore(0), cfgFake, docs, docs, notif, firma.UmbralMinPuntos)
}

func trazoDe(puntos int) [][]firma.Punto {
	trazo := make([]firma.Punto, 0, puntos)
	for i := 0; i < puntos; i++ {
		trazo = append(trazo, firma.Punto{X: float64(20 + i), Y: float64(40 + i%7)})
	}
	return [][]firma.Punto{trazo}
}

// completarHastaRevision lleva la sesión por todo el asistente con los datos
// del escenario Juan Pérez y deja la sesión en Revision con preview listo.
func completarHastaRevision(t *testing.T, s *ConsentimientoService, sesionID string) {
	t.Helper()
	ctx := context.Background()

	// Informacion -> Educando -> Salud
	if _, err := s.Avanzar(3, sesionID); err != nil {
		t.Fatalf("avanzar: %v", err)
	}
	if _, err := s.Avanzar(3, sesionID); err != nil {
		t.Fatalf("avanzar: %v", err)
	}
	if _, err := s.ActualizarSalud(3, sesionID, map[string]interface{}{"alergias": "frutos secos"}); err != nil {
		t.Fatalf("salud: %v", err)
	}
	if _, err := s.Avanzar(3, sesionID); err != nil {
		t.Fatalf("avanzar: %v", err)
	}

	// Contactos: un único contacto de emergencia.
	if _, err := s.ActualizarContacto(3, sesionID, 1, "nombre_completo", "María Pérez"); err != nil {
		t.Fatalf("contacto: %v", err)
	}
	if _, err := s.ActualizarContacto(3, sesionID, 1, "telefono", "600111222"); err != nil {
		t.Fatalf("contacto: %v", err)
	}
	if _, err := s.ActualizarContacto(3, sesionID, 1, "relacion", "madre"); err != nil {
		t.Fatalf("contacto: %v", err)
	}
	if _, err := s.Avanzar(3, sesionID); err != nil {
		t.Fatalf("avanzar: %v", err)
	}

	// Autorizaciones: dos obligatorias y una opcional.
	if _, err := s.ResponderCampo(3, sesionID, "autoriza_coche", true); err != nil {
		t.Fatalf("campo: %v", err)
	}
	if _, err := s.ResponderCampo(3, sesionID, "observaciones", "lleva inhalador"); err != nil {
		t.Fatalf("campo: %v", err)
	}
	if _, err := s.Avanzar(3, sesionID); err != nil {
		t.Fatalf("avanzar: %v", err)
	}

	// Resumen: aceptar condiciones y pedir actualización del perfil.
	if _, err := s.FijarCondiciones(3, sesionID, true, true); err != nil {
		t.Fatalf("condiciones: %v", err)
	}
	if _, err := s.Avanzar(3, sesionID); err != nil {
		t.Fatalf("avanzar a firma: %v", err)
	}

	// Firma de 40 puntos, sobre el umbral.
	fe, err := s.RegistrarFirma(3, sesionID, internaldto.FirmaUpdate{Trazos: trazoDe(40)})
	if err != nil {
		t.Fatalf("firma: %v", err)
	}
	if !fe.Valida || fe.TotalPuntos != 40 {
		t.Fatalf("firma de 40 puntos debe validar: %+v", fe)
	}

	estado, err := s.ConfirmarFirma(ctx, 3, sesionID)
	if err != nil {
		t.Fatalf("confirmar firma: %v", err)
	}
	if estado.Paso != models.PasoRevision {
		t.Fatalf("paso = %s, esperaba revisión", estado.Paso)
	}
	if estado.Protocolo != models.ProtocoloPreviewListo {
		t.Fatalf("protocolo = %s, esperaba preview listo", estado.Protocolo)
	}
	if estado.PdfPreview == "" {
		t.Fatal("la revisión debe mostrar el documento renderizado")
	}
}

func TestEscenarioJuanPerez(t *testing.T) {
	cfgFake := &configFake{cfg: configJuan()}
	docs := &docsFake{}
	notif := &notificadorFake{}
	s := servicioPrueba(cfgFake, docs, notif)
	ctx := context.Background()

	inicio, err := s.CrearSesion(ctx, nil, 3, 7, 21)
	if err != nil {
		t.Fatalf("crear sesión: %v", err)
	}
	if inicio.Estado != models.SesionActiva || inicio.Paso != models.PasoInformacion {
		t.Fatalf("sesión inicial inesperada: %+v", inicio)
	}

	completarHastaRevision(t, s, inicio.SesionId)

	final, err := s.Confirmar(ctx, nil, 3, inicio.SesionId)
	if err != nil {
		t.Fatalf("confirmar: %v", err)
	}
	if final.Estado != models.SesionEnviada {
		t.Fatalf("estado final = %s, esperaba enviada", final.Estado)
	}
	if final.Resultado == nil || final.Resultado.PdfUrl == "" {
		t.Fatalf("el estado terminal debe contener la referencia al documento: %+v", final.Resultado)
	}
	if docs.persistidas != 1 {
		t.Fatalf("persistidas = %d, esperaba exactamente 1", docs.persistidas)
	}
	if cfgFake.perfilActualizado == nil || cfgFake.perfilActualizado.Alergias != "frutos secos" {
		t.Fatalf("con actualizar_perfil la edición debe persistirse: %+v", cfgFake.perfilActualizado)
	}
	if notif.enviadas != 1 {
		t.Fatalf("notificaciones = %d, esperaba 1", notif.enviadas)
	}

	// Segundo intento sobre el mismo par: el asistente no se ofrece.
	cfgFake.firmada = &models.RespuestaExistente{
		CircularId: 7,
		EducandoId: 21,
		FechaFirma: final.Resultado.FechaFirma,
		PdfUrl:     final.Resultado.PdfUrl,
	}
	segundo, err := s.CrearSesion(ctx, nil, 3, 7, 21)
	if err != nil {
		t.Fatalf("segunda apertura: %v", err)
	}
	if segundo.Estado != models.SesionYaFirmada {
		t.Fatalf("estado = %s, esperaba ya-firmada", segundo.Estado)
	}
	if segundo.SesionId != "" {
		t.Fatal("con respuesta existente no debe crearse sesión")
	}
	if segundo.YaFirmada == nil || segundo.YaFirmada.FechaFirma != final.Resultado.FechaFirma {
		t.Fatalf("la vista terminal debe conservar la fecha original: %+v", segundo.YaFirmada)
	}
}

func TestFirmaBajoUmbralNoHabilitaConfirmar(t *testing.T) {
	cfgFake := &configFake{cfg: configJuan()}
	s := servicioPrueba(cfgFake, &docsFake{}, &notificadorFake{})
	ctx := context.Background()

	inicio, err := s.CrearSesion(ctx, nil, 3, 7, 21)
	if err != nil {
		t.Fatalf("crear sesión: %v", err)
	}

	fe, err := s.RegistrarFirma(3, inicio.SesionId, internaldto.FirmaUpdate{Trazos: trazoDe(29)})
	if err != nil {
		t.Fatalf("registrar firma: %v", err)
	}
	if fe.Valida {
		t.Fatal("29 puntos no deben validar")
	}

	estado, err := s.Estado(3, inicio.SesionId)
	if err != nil {
		t.Fatalf("estado: %v", err)
	}
	// Bloqueo silencioso: la firma corta simplemente no existe.
	if estado.TieneFirma {
		t.Fatal("bajo umbral la firma debe reportarse ausente")
	}
}

func TestFalloDeEnvioPreservaElEstado(t *testing.T) {
	cfgFake := &configFake{cfg: configJuan()}
	docs := &docsFake{firmarFallos: 1}
	s := servicioPrueba(cfgFake, docs, &notificadorFake{})
	ctx := context.Background()

	inicio, err := s.CrearSesion(ctx, nil, 3, 7, 21)
	if err != nil {
		t.Fatalf("crear sesión: %v", err)
	}
	completarHastaRevision(t, s, inicio.SesionId)

	fallido, err := s.Confirmar(ctx, nil, 3, inicio.SesionId)
	if err != nil {
		t.Fatalf("el fallo remoto se reporta inline, no como error: %v", err)
	}
	if fallido.Protocolo != models.ProtocoloEnvioError || fallido.UltimoError == "" {
		t.Fatalf("esperaba error inline de envío: %+v", fallido)
	}

	// Todo lo capturado sigue intacto para el reintento.
	if fallido.Salud.Alergias != "frutos secos" {
		t.Fatalf("salud perdida tras el fallo: %+v", fallido.Salud)
	}
	if len(fallido.Contactos) != 1 || fallido.Contactos[0].NombreCompleto != "María Pérez" {
		t.Fatalf("contactos perdidos tras el fallo: %+v", fallido.Contactos)
	}
	if v, ok := fallido.Respuestas["autoriza_coche"].(bool); !ok || !v {
		t.Fatalf("respuestas perdidas tras el fallo: %+v", fallido.Respuestas)
	}
	if !fallido.TieneFirma {
		t.Fatal("la firma debe sobrevivir al fallo de envío")
	}

	exito, err := s.Confirmar(ctx, nil, 3, inicio.SesionId)
	if err != nil {
		t.Fatalf("reintento: %v", err)
	}
	if exito.Estado != models.SesionEnviada || docs.persistidas != 1 {
		t.Fatalf("el reintento debe completar un único envío: estado=%s persistidas=%d", exito.Estado, docs.persistidas)
	}
}

func TestEstadoConcurrenteConEdiciones(t *testing.T) {
	cfgFake := &configFake{cfg: configJuan()}
	s := servicioPrueba(cfgFake, &docsFake{}, &notificadorFake{})

	inicio, err := s.CrearSesion(context.Background(), nil, 3, 7, 21)
	if err != nil {
		t.Fatalf("crear sesión: %v", err)
	}

	// Consultas de estado en paralelo con ediciones sobre la misma sesión:
	// la vista se arma bajo el candado de la sesión, igual que las mutaciones.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := s.ResponderCampo(3, inicio.SesionId, "observaciones", "lleva inhalador"); err != nil {
				t.Errorf("responder campo: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := s.Estado(3, inicio.SesionId); err != nil {
				t.Errorf("estado: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	estado, err := s.Estado(3, inicio.SesionId)
	if err != nil {
		t.Fatalf("estado final: %v", err)
	}
	if v, ok := estado.Respuestas["observaciones"].(string); !ok || v != "lleva inhalador" {
		t.Fatalf("respuestas tras ediciones concurrentes = %+v", estado.Respuestas)
	}
}

func TestPreviewFallidoDejaErrorInlineYReintento(t *testing.T) {
	cfgFake := &configFake{cfg: configJuan()}
	docs := &docsFake{renderFallos: 1}
	s := servicioPrueba(cfgFake, docs, &notificadorFake{})
	ctx := context.Background()

	inicio, err := s.CrearSesion(ctx, nil, 3, 7, 21)
	if err != nil {
		t.Fatalf("crear sesión: %v", err)
	}

	// Llegar a Firma con todo completo.
	for i := 0; i < 4; i++ {
		if _, err := s.Avanzar(3, inicio.SesionId); err != nil {
			t.Fatalf("avanzar: %v", err)
		}
	}
	if _, err := s.ResponderCampo(3, inicio.SesionId, "autoriza_coche", true); err != nil {
		t.Fatalf("campo: %v", err)
	}
	if _, err := s.ResponderCampo(3, inicio.SesionId, "observaciones", "ninguna"); err != nil {
		t.Fatalf("campo: %v", err)
	}
	if _, err := s.ActualizarContacto(3, inicio.SesionId, 1, "nombre_completo", "María Pérez"); err != nil {
		t.Fatalf("contacto: %v", err)
	}
	if _, err := s.Avanzar(3, inicio.SesionId); err != nil {
		t.Fatalf("avanzar: %v", err)
	}
	if _, err := s.FijarCondiciones(3, inicio.SesionId, true, false); err != nil {
		t.Fatalf("condiciones: %v", err)
	}
	if _, err := s.Avanzar(3, inicio.SesionId); err != nil {
		t.Fatalf("avanzar a firma: %v", err)
	}
	if _, err := s.RegistrarFirma(3, inicio.SesionId, internaldto.FirmaUpdate{Trazos: trazoDe(40)}); err != nil {
		t.Fatalf("firma: %v", err)
	}

	estado, err := s.ConfirmarFirma(ctx, 3, inicio.SesionId)
	if err != nil {
		t.Fatalf("confirmar firma: %v", err)
	}
	if estado.Paso != models.PasoRevision {
		t.Fatalf("el fallo de render no impide entrar a revisión: %+v", estado.Paso)
	}
	if estado.Protocolo != models.ProtocoloPreviewError || estado.UltimoError == "" {
		t.Fatalf("esperaba error inline de preview: %+v", estado)
	}

	// Confirmar sin preview listo se rechaza.
	if _, err := s.Confirmar(ctx, nil, 3, inicio.SesionId); err == nil {
		t.Fatal("confirmar sin previsualización debe rechazarse")
	}

	reintento, err := s.Previsualizar(ctx, 3, inicio.SesionId)
	if err != nil {
		t.Fatalf("reintento de preview: %v", err)
	}
	if reintento.Protocolo != models.ProtocoloPreviewListo || reintento.PdfPreview == "" {
		t.Fatalf("el reintento debe dejar el preview listo: %+v", reintento)
	}
}
