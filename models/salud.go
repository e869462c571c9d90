package models

// PerfilSaludData agrupa la información médica del educando incluida en la circular.
// Se inicializa desde el perfil almacenado (si existe) y cada campo es editable
// en sesión de forma independiente.
type PerfilSaludData struct {
	Alergias            string `json:"Alergias"`
	Intolerancias       string `json:"Intolerancias"`
	DietaEspecial       string `json:"DietaEspecial"`
	Medicacion          string `json:"Medicacion"`
	EnfermedadesCronica string `json:"EnfermedadesCronicas"`
	ObservacionesMed    string `json:"ObservacionesMedicas"`
	GrupoSanguineo      string `json:"GrupoSanguineo"`
	NumTarjetaSanitaria string `json:"NumTarjetaSanitaria"`
	PuedeHacerDeporte   bool   `json:"PuedeHacerDeporte"`
}

// NewPerfilSaludData retorna un perfil con valores neutros.
// PuedeHacerDeporte es el único campo con default distinto de vacío.
func NewPerfilSaludData() PerfilSaludData {
	return PerfilSaludData{PuedeHacerDeporte: true}
}
