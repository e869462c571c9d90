package models

// ContactoEmergencia es un contacto priorizado para la actividad.
// Siempre existen entre 1 y 3 instancias con Orden contiguo desde 1.
type ContactoEmergencia struct {
	NombreCompleto string `json:"NombreCompleto"`
	Telefono       string `json:"Telefono"`
	Relacion       string `json:"Relacion"`
	Orden          int    `json:"Orden"`
}

// Límites de contactos de emergencia por circular.
const (
	MinContactosEmergencia = 1
	MaxContactosEmergencia = 3
)
