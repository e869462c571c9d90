package models

// Pasos del asistente de consentimiento, en orden.
const (
	PasoInformacion    = "INFO_CIR"
	PasoEducando       = "EDU_CIR"
	PasoSalud          = "SAL_CIR"
	PasoContactos      = "CON_CIR"
	PasoAutorizaciones = "AUT_CIR"
	PasoResumen        = "RES_CIR"
	PasoFirma          = "FIR_CIR"
	PasoRevision       = "REV_CIR"
)

// Estados terminales de una sesión de consentimiento.
const (
	SesionActiva    = "SES_ACT"
	SesionYaFirmada = "SES_YAF"
	SesionEnviada   = "SES_ENV"
	SesionCancelada = "SES_CAN"
)

// Estados del protocolo previsualizar/confirmar anidado en el paso Revision.
const (
	ProtocoloIdle         = "PRT_IDL"
	ProtocoloPreviewCarga = "PRT_PVC"
	ProtocoloPreviewListo = "PRT_PVL"
	ProtocoloPreviewError = "PRT_PVE"
	ProtocoloEnviando     = "PRT_ENV"
	ProtocoloEnviado      = "PRT_OK"
	ProtocoloEnvioError   = "PRT_ERR"
)
