package consentimiento

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/models"
)

// Payload es la candidatura completa de envío que consume el protocolo
// previsualizar/confirmar. Es el único accesor de lectura del agregador.
type Payload struct {
	CircularId        int64                       `json:"CircularId"`
	EducandoId        int64                       `json:"EducandoId"`
	DatosMedicos      models.PerfilSaludData      `json:"DatosMedicos"`
	Contactos         []models.ContactoEmergencia `json:"Contactos"`
	CamposCustom      map[string]interface{}      `json:"CamposCustom"`
	FirmaBase64       string                      `json:"FirmaBase64"`
	FirmaTipo         string                      `json:"FirmaTipo"`
	AceptaCondiciones bool                        `json:"AceptaCondiciones"`
	ActualizarPerfil  bool                        `json:"ActualizarPerfil"`
}

// saludCampos mantiene cada campo del perfil de salud etiquetado con su fuente.
type saludCampos struct {
	Alergias            Valor[string]
	Intolerancias       Valor[string]
	DietaEspecial       Valor[string]
	Medicacion          Valor[string]
	EnfermedadesCronica Valor[string]
	ObservacionesMed    Valor[string]
	GrupoSanguineo      Valor[string]
	NumTarjetaSanitaria Valor[string]
	PuedeHacerDeporte   Valor[bool]
}

// Agregador es el dueño exclusivo del payload en construcción: salud,
// contactos de emergencia, respuestas a campos custom, firma y banderas.
// Ningún otro componente muta este estado directamente.
type Agregador struct {
	circularID int64
	educandoID int64

	salud      saludCampos
	contactos  []models.ContactoEmergencia
	campos     []models.CampoCustom
	respuestas map[string]interface{}

	firmaBase64       string
	aceptaCondiciones bool
	actualizarPerfil  bool
}

// NewAgregador siembra el estado de trabajo desde la configuración de la
// circular: perfil de salud previo si existe, contactos previos o uno en
// blanco, y las definiciones de campos custom de la actividad.
func NewAgregador(cfg models.ConsentConfig) *Agregador {
	a := &Agregador{
		circularID: cfg.Circular.Id,
		educandoID: cfg.Educando.Id,
		campos:     append([]models.CampoCustom(nil), cfg.CamposCustom...),
		respuestas: make(map[string]interface{}),
	}

	a.sembrarSalud(models.NewPerfilSaludData())
	if cfg.PerfilSalud != nil {
		a.sembrarSalud(*cfg.PerfilSalud)
	}

	if len(cfg.Contactos) > 0 {
		limite := len(cfg.Contactos)
		if limite > models.MaxContactosEmergencia {
			limite = models.MaxContactosEmergencia
		}
		a.contactos = append(a.contactos, cfg.Contactos[:limite]...)
		a.renumerar()
	} else {
		a.contactos = []models.ContactoEmergencia{{Orden: 1}}
	}

	return a
}

// sembrarSalud aplica valores de servidor a través de la regla de fusión,
// de modo que nunca pisen un campo ya editado en la misma sesión.
func (a *Agregador) sembrarSalud(p models.PerfilSaludData) {
	a.salud.Alergias = Fusionar(a.salud.Alergias, DeServidor(p.Alergias))
	a.salud.Intolerancias = Fusionar(a.salud.Intolerancias, DeServidor(p.Intolerancias))
	a.salud.DietaEspecial = Fusionar(a.salud.DietaEspecial, DeServidor(p.DietaEspecial))
	a.salud.Medicacion = Fusionar(a.salud.Medicacion, DeServidor(p.Medicacion))
	a.salud.EnfermedadesCronica = Fusionar(a.salud.EnfermedadesCronica, DeServidor(p.EnfermedadesCronica))
	a.salud.ObservacionesMed = Fusionar(a.salud.ObservacionesMed, DeServidor(p.ObservacionesMed))
	a.salud.GrupoSanguineo = Fusionar(a.salud.GrupoSanguineo, DeServidor(p.GrupoSanguineo))
	a.salud.NumTarjetaSanitaria = Fusionar(a.salud.NumTarjetaSanitaria, DeServidor(p.NumTarjetaSanitaria))
	a.salud.PuedeHacerDeporte = Fusionar(a.salud.PuedeHacerDeporte, DeServidor(p.PuedeHacerDeporte))
}

// ActualizarSalud aplica ediciones de usuario campo a campo, en el orden
// recibido (last-write-wins por campo).
func (a *Agregador) ActualizarSalud(campos map[string]interface{}) error {
	for nombre, valor := range campos {
		if err := a.actualizarSaludCampo(nombre, valor); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agregador) actualizarSaludCampo(nombre string, valor interface{}) error {
	if nombre == "puede_hacer_deporte" {
		b, ok := valor.(bool)
		if !ok {
			return helpers.NewAppError(http.StatusBadRequest, "puede_hacer_deporte debe ser booleano", nil)
		}
		a.salud.PuedeHacerDeporte = Fusionar(a.salud.PuedeHacerDeporte, DeUsuario(b))
		return nil
	}

	s, ok := valor.(string)
	if !ok {
		return helpers.NewAppError(http.StatusBadRequest, fmt.Sprintf("campo de salud %s debe ser texto", nombre), nil)
	}
	nuevo := DeUsuario(s)

	switch nombre {
	case "alergias":
		a.salud.Alergias = Fusionar(a.salud.Alergias, nuevo)
	case "intolerancias":
		a.salud.Intolerancias = Fusionar(a.salud.Intolerancias, nuevo)
	case "dieta_especial":
		a.salud.DietaEspecial = Fusionar(a.salud.DietaEspecial, nuevo)
	case "medicacion":
		a.salud.Medicacion = Fusionar(a.salud.Medicacion, nuevo)
	case "enfermedades_cronicas":
		a.salud.EnfermedadesCronica = Fusionar(a.salud.EnfermedadesCronica, nuevo)
	case "observaciones_medicas":
		a.salud.ObservacionesMed = Fusionar(a.salud.ObservacionesMed, nuevo)
	case "grupo_sanguineo":
		a.salud.GrupoSanguineo = Fusionar(a.salud.GrupoSanguineo, nuevo)
	case "num_tarjeta_sanitaria":
		a.salud.NumTarjetaSanitaria = Fusionar(a.salud.NumTarjetaSanitaria, nuevo)
	default:
		return helpers.NewAppError(http.StatusBadRequest, fmt.Sprintf("campo de salud desconocido: %s", nombre), nil)
	}
	return nil
}

// Salud materializa el perfil de salud actual.
func (a *Agregador) Salud() models.PerfilSaludData {
	return models.PerfilSaludData{
		Alergias:            a.salud.Alergias.Dato,
		Intolerancias:       a.salud.Intolerancias.Dato,
		DietaEspecial:       a.salud.DietaEspecial.Dato,
		Medicacion:          a.salud.Medicacion.Dato,
		EnfermedadesCronica: a.salud.EnfermedadesCronica.Dato,
		ObservacionesMed:    a.salud.ObservacionesMed.Dato,
		GrupoSanguineo:      a.salud.GrupoSanguineo.Dato,
		NumTarjetaSanitaria: a.salud.NumTarjetaSanitaria.Dato,
		PuedeHacerDeporte:   a.salud.PuedeHacerDeporte.Dato,
	}
}

// AgregarContacto añade un contacto en blanco. Con 3 contactos es no-op.
func (a *Agregador) AgregarContacto() {
	if len(a.contactos) >= models.MaxContactosEmergencia {
		return
	}
	a.contactos = append(a.contactos, models.ContactoEmergencia{})
	a.renumerar()
}

// QuitarContacto elimina el contacto con el orden dado. Quitar el último
// contacto restante está prohibido y es no-op.
func (a *Agregador) QuitarContacto(orden int) {
	if len(a.contactos) <= models.MinContactosEmergencia {
		return
	}
	idx := orden - 1
	if idx < 0 || idx >= len(a.contactos) {
		return
	}
	a.contactos = append(a.contactos[:idx], a.contactos[idx+1:]...)
	a.renumerar()
}

// ActualizarContacto edita un campo del contacto identificado por orden.
func (a *Agregador) ActualizarContacto(orden int, campo, valor string) error {
	idx := orden - 1
	if idx < 0 || idx >= len(a.contactos) {
		return helpers.NewAppError(http.StatusBadRequest, "contacto no encontrado", nil)
	}
	switch campo {
	case "nombre_completo":
		a.contactos[idx].NombreCompleto = valor
	case "telefono":
		a.contactos[idx].Telefono = valor
	case "relacion":
		a.contactos[idx].Relacion = valor
	default:
		return helpers.NewAppError(http.StatusBadRequest, fmt.Sprintf("campo de contacto desconocido: %s", campo), nil)
	}
	return nil
}

// Contactos retorna una copia de los contactos actuales.
func (a *Agregador) Contactos() []models.ContactoEmergencia {
	return append([]models.ContactoEmergencia(nil), a.contactos...)
}

// renumerar mantiene Orden contiguo desde 1 tras altas y bajas.
func (a *Agregador) renumerar() {
	for i := range a.contactos {
		a.contactos[i].Orden = i + 1
	}
}

// ResponderCampo registra la respuesta a un campo custom de la actividad.
// checkbox almacena booleano; text y textarea almacenan cadena.
func (a *Agregador) ResponderCampo(nombre string, valor interface{}) error {
	def := a.definicionCampo(nombre)
	if def == nil {
		return helpers.NewAppError(http.StatusBadRequest, fmt.Sprintf("campo custom desconocido: %s", nombre), nil)
	}
	switch def.TipoCampo {
	case models.CampoTipoCheckbox:
		b, ok := valor.(bool)
		if !ok {
			return helpers.NewAppError(http.StatusBadRequest, fmt.Sprintf("campo %s espera booleano", nombre), nil)
		}
		a.respuestas[nombre] = b
	case models.CampoTipoTexto, models.CampoTipoTextarea:
		s, ok := valor.(string)
		if !ok {
			return helpers.NewAppError(http.StatusBadRequest, fmt.Sprintf("campo %s espera texto", nombre), nil)
		}
		a.respuestas[nombre] = s
	default:
		return helpers.NewAppError(http.StatusBadRequest, fmt.Sprintf("tipo de campo no soportado: %s", def.TipoCampo), nil)
	}
	return nil
}

func (a *Agregador) definicionCampo(nombre string) *models.CampoCustom {
	for i := range a.campos {
		if a.campos[i].NombreCampo == nombre {
			return &a.campos[i]
		}
	}
	return nil
}

// ObligatoriosPendientes lista los campos custom obligatorios sin respuesta
// válida: checkbox debe ser true, texto debe ser no vacío.
func (a *Agregador) ObligatoriosPendientes() []string {
	var pendientes []string
	for _, def := range a.campos {
		if !def.Obligatorio {
			continue
		}
		valor, ok := a.respuestas[def.NombreCampo]
		if !ok {
			pendientes = append(pendientes, def.NombreCampo)
			continue
		}
		switch v := valor.(type) {
		case bool:
			if !v {
				pendientes = append(pendientes, def.NombreCampo)
			}
		case string:
			if strings.TrimSpace(v) == "" {
				pendientes = append(pendientes, def.NombreCampo)
			}
		}
	}
	return pendientes
}

// FijarFirma registra la imagen de firma validada por el motor de captura.
// Cadena vacía significa firma ausente.
func (a *Agregador) FijarFirma(imagenBase64 string) {
	a.firmaBase64 = imagenBase64
}

// TieneFirma indica si hay una firma aceptada.
func (a *Agregador) TieneFirma() bool {
	return a.firmaBase64 != ""
}

// FijarCondiciones actualiza las banderas de aceptación y persistencia.
func (a *Agregador) FijarCondiciones(acepta, actualizarPerfil bool) {
	a.aceptaCondiciones = acepta
	a.actualizarPerfil = actualizarPerfil
}

// AceptaCondiciones expone la bandera de aceptación para las guardas del
// secuenciador.
func (a *Agregador) AceptaCondiciones() bool {
	return a.aceptaCondiciones
}

// ActualizaPerfil indica si las ediciones de salud deben persistirse tras
// un confirmar exitoso.
func (a *Agregador) ActualizaPerfil() bool {
	return a.actualizarPerfil
}

// Respuestas retorna una copia de las respuestas a campos custom.
func (a *Agregador) Respuestas() map[string]interface{} {
	out := make(map[string]interface{}, len(a.respuestas))
	for k, v := range a.respuestas {
		out[k] = v
	}
	return out
}

// Payload arma la candidatura completa para previsualizar o confirmar.
func (a *Agregador) Payload() Payload {
	return Payload{
		CircularId:        a.circularID,
		EducandoId:        a.educandoID,
		DatosMedicos:      a.Salud(),
		Contactos:         a.Contactos(),
		CamposCustom:      a.Respuestas(),
		FirmaBase64:       a.firmaBase64,
		FirmaTipo:         "manuscrita",
		AceptaCondiciones: a.aceptaCondiciones,
		ActualizarPerfil:  a.actualizarPerfil,
	}
}
