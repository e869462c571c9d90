package dto

import (
	"github.com/grupoazimut/circulares_mid/internal/firma"
	"github.com/grupoazimut/circulares_mid/models"
)

// ConsentConfigDTO es la vista de la configuración de consentimiento que el
// portal de familias consume antes de ofrecer el asistente.
type ConsentConfigDTO struct {
	Circular     models.CircularConfig       `json:"circular"`
	CamposCustom []models.CampoCustom        `json:"campos_custom"`
	PerfilSalud  *models.PerfilSaludData     `json:"perfil_salud,omitempty"`
	Contactos    []models.ContactoEmergencia `json:"contactos,omitempty"`
	Educando     models.Educando             `json:"educando"`
	Familiar     models.Familiar             `json:"familiar"`
	YaFirmada    bool                        `json:"ya_firmada"`
	Respuesta    *models.RespuestaExistente  `json:"respuesta_existente,omitempty"`
}

// SesionCreate es la solicitud de apertura del asistente.
type SesionCreate struct {
	EducandoId int64 `json:"educando_id"`
}

// SaludUpdate transporta ediciones campo a campo del perfil de salud.
type SaludUpdate struct {
	Campos map[string]interface{} `json:"campos"`
}

// ContactoUpdate edita un campo de un contacto de emergencia.
type ContactoUpdate struct {
	Campo string `json:"campo"`
	Valor string `json:"valor"`
}

// CampoRespuesta registra la respuesta a un campo custom.
type CampoRespuesta struct {
	Valor interface{} `json:"valor"`
}

// CondicionesUpdate fija las banderas de aceptación y persistencia del perfil.
type CondicionesUpdate struct {
	AceptaCondiciones bool `json:"acepta_condiciones"`
	ActualizarPerfil  bool `json:"actualizar_perfil"`
}

// FirmaUpdate entrega trazos capturados en el lienzo. Limpiar descarta lo
// acumulado y Redimensionar (si viene) invalida la firma en curso.
type FirmaUpdate struct {
	Trazos        [][]firma.Punto   `json:"trazos,omitempty"`
	Limpiar       bool              `json:"limpiar,omitempty"`
	Redimensionar *FirmaRedimension `json:"redimensionar,omitempty"`
}

// FirmaRedimension describe el nuevo tamaño del contenedor del lienzo.
type FirmaRedimension struct {
	Ancho int     `json:"ancho"`
	Alto  int     `json:"alto"`
	Dpr   float64 `json:"dpr"`
}

// FirmaEstadoDTO reporta el estado del motor de captura tras una edición.
type FirmaEstadoDTO struct {
	TotalPuntos int  `json:"total_puntos"`
	Valida      bool `json:"valida"`
}

// EstadoSesionDTO es la vista completa de la sesión que consume el portal.
type EstadoSesionDTO struct {
	SesionId          string                      `json:"sesion_id,omitempty"`
	Estado            string                      `json:"estado"`
	Paso              string                      `json:"paso,omitempty"`
	Protocolo         string                      `json:"protocolo,omitempty"`
	Salud             models.PerfilSaludData      `json:"salud"`
	Contactos         []models.ContactoEmergencia `json:"contactos"`
	Respuestas        map[string]interface{}      `json:"respuestas"`
	TieneFirma        bool                        `json:"tiene_firma"`
	AceptaCondiciones bool                        `json:"acepta_condiciones"`
	ActualizarPerfil  bool                        `json:"actualizar_perfil"`
	PdfPreview        string                      `json:"pdf_preview,omitempty"`
	UltimoError       string                      `json:"ultimo_error,omitempty"`
	Resultado         *models.RespuestaFirmada    `json:"resultado,omitempty"`
	YaFirmada         *models.RespuestaExistente  `json:"respuesta_existente,omitempty"`
}
