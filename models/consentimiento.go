package models

// RespuestaExistente representa una firma ya persistida para el par
// (circular, educando). Su presencia en la configuración hace terminal
// el flujo: el asistente editable nunca se ofrece.
type RespuestaExistente struct {
	Id         int64  `json:"Id"`
	CircularId int64  `json:"CircularId"`
	EducandoId int64  `json:"EducandoId"`
	FechaFirma string `json:"FechaFirma"`
	PdfUrl     string `json:"PdfUrl,omitempty"`
}

// RespuestaFirmada es el artefacto terminal de un confirmar exitoso.
// Se crea exactamente una vez por commit.
type RespuestaFirmada struct {
	CircularId int64  `json:"CircularId"`
	EducandoId int64  `json:"EducandoId"`
	FechaFirma string `json:"FechaFirma"`
	PdfUrl     string `json:"PdfUrl,omitempty"`
}

// ConsentConfig agrupa todo lo que el servicio de circulares retorna para
// montar el asistente de una (circular, educando).
type ConsentConfig struct {
	Circular           CircularConfig       `json:"Circular"`
	CamposCustom       []CampoCustom        `json:"CamposCustom"`
	PerfilSalud        *PerfilSaludData     `json:"PerfilSalud,omitempty"`
	Contactos          []ContactoEmergencia `json:"Contactos,omitempty"`
	Educando           Educando             `json:"Educando"`
	Familiar           Familiar             `json:"Familiar"`
	RespuestaExistente *RespuestaExistente  `json:"RespuestaExistente,omitempty"`
}
