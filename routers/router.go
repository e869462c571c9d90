package routers

import (
	"github.com/grupoazimut/circulares_mid/controllers/errorhandler"
	internalcontrollers "github.com/grupoazimut/circulares_mid/internal/controllers"
	"github.com/grupoazimut/circulares_mid/internal/middlewares"

	beego "github.com/beego/beego/v2/server/web"
)

func init() {
	// Manejador de errores
	beego.ErrorController(&errorhandler.ErrorHandlerController{})

	middlewares.UseAuth()

	beego.Router("/v1/circulares/:id/consentimiento", &internalcontrollers.CircularesController{}, "get:GetConsentimiento")
	beego.Router("/v1/circulares/:id/consentimiento/sesion", &internalcontrollers.CircularesController{}, "post:PostCrearSesion")

	beego.Router("/v1/consentimiento/sesiones/:id", &internalcontrollers.ConsentimientoController{}, "get:GetEstado")
	beego.Router("/v1/consentimiento/sesiones/:id/avanzar", &internalcontrollers.ConsentimientoController{}, "post:PostAvanzar")
	beego.Router("/v1/consentimiento/sesiones/:id/retroceder", &internalcontrollers.ConsentimientoController{}, "post:PostRetroceder")
	beego.Router("/v1/consentimiento/sesiones/:id/cancelar", &internalcontrollers.ConsentimientoController{}, "post:PostCancelar")

	beego.Router("/v1/consentimiento/sesiones/:id/salud", &internalcontrollers.ConsentimientoController{}, "put:PutSalud")
	beego.Router("/v1/consentimiento/sesiones/:id/contactos", &internalcontrollers.ConsentimientoController{}, "post:PostContacto")
	beego.Router("/v1/consentimiento/sesiones/:id/contactos/:orden", &internalcontrollers.ConsentimientoController{}, "put:PutContacto;delete:DeleteContacto")
	beego.Router("/v1/consentimiento/sesiones/:id/campos/:nombre", &internalcontrollers.ConsentimientoController{}, "put:PutCampo")
	beego.Router("/v1/consentimiento/sesiones/:id/condiciones", &internalcontrollers.ConsentimientoController{}, "put:PutCondiciones")
	beego.Router("/v1/consentimiento/sesiones/:id/firma", &internalcontrollers.ConsentimientoController{}, "put:PutFirma")

	beego.Router("/v1/consentimiento/sesiones/:id/confirmar-firma", &internalcontrollers.ConsentimientoController{}, "post:PostConfirmarFirma")
	beego.Router("/v1/consentimiento/sesiones/:id/previsualizar", &internalcontrollers.ConsentimientoController{}, "post:PostPrevisualizar")
	beego.Router("/v1/consentimiento/sesiones/:id/corregir", &internalcontrollers.ConsentimientoController{}, "post:PostCorregir")
	beego.Router("/v1/consentimiento/sesiones/:id/confirmar", &internalcontrollers.ConsentimientoController{}, "post:PostConfirmar")
}
