package models

// TipoCampo enumera los tipos de campo custom soportados por una circular.
const (
	CampoTipoCheckbox = "checkbox"
	CampoTipoTextarea = "textarea"
	CampoTipoTexto    = "text"
)

// CircularConfig describe la configuración de consentimiento de una actividad.
// Es propiedad del servicio de circulares; el MID la trata como solo lectura.
type CircularConfig struct {
	Id               int64    `json:"Id"`
	Titulo           string   `json:"Titulo"`
	Actividad        string   `json:"Actividad"`
	FechaActividad   string   `json:"FechaActividad"`
	Lugar            string   `json:"Lugar"`
	HoraSalida       string   `json:"HoraSalida"`
	HoraRegreso      string   `json:"HoraRegreso"`
	Costo            string   `json:"Costo"`
	QueLlevar        []string `json:"QueLlevar,omitempty"`
	BloquesInfo      []string `json:"BloquesInfo,omitempty"`
	RequiereFirma    bool     `json:"RequiereFirma"`
	FechaLimiteFirma string   `json:"FechaLimiteFirma,omitempty"`
}

// CampoCustom es una pregunta de autorización específica de la actividad.
type CampoCustom struct {
	Id          int64  `json:"Id"`
	NombreCampo string `json:"NombreCampo"`
	Etiqueta    string `json:"Etiqueta"`
	TipoCampo   string `json:"TipoCampo"`
	Obligatorio bool   `json:"Obligatorio"`
}

// Educando identifica al participante sobre el que se otorga el consentimiento.
type Educando struct {
	Id             int64  `json:"Id"`
	NombreCompleto string `json:"NombreCompleto"`
	Documento      string `json:"Documento,omitempty"`
	Rama           string `json:"Rama,omitempty"`
	FechaNac       string `json:"FechaNac,omitempty"`
}

// Familiar identifica al acudiente que firma la circular.
type Familiar struct {
	Id             int64  `json:"Id"`
	NombreCompleto string `json:"NombreCompleto"`
	Documento      string `json:"Documento,omitempty"`
	Parentesco     string `json:"Parentesco,omitempty"`
}
