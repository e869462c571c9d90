package services

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grupoazimut/circulares_mid/helpers"

	beego "github.com/beego/beego/v2/server/web"
)

// Config centraliza la configuración necesaria para los servicios externos.
type Config struct {
	AppName               string
	HTTPPort              int
	RunMode               string
	CircularesCRUDBaseURL string
	DocumentosBaseURL     string
	NotificacionesBaseURL string
	OASBearerToken        string
	JWTSecret             string
	RequestTimeout        time.Duration
	RetryCount            int
	FirmaUmbralPuntos     int
	SesionTTL             time.Duration
}

var (
	cfg  Config
	once sync.Once
)

// GetConfig devuelve la configuración cargada desde variables de entorno o app.conf.
func GetConfig() Config {
	once.Do(func() {
		cfg = Config{
			AppName:               getString("APP_NAME", "appname", "circulares_mid"),
			HTTPPort:              getInt("HTTP_PORT", "httpport", 8080),
			RunMode:               getString("RUN_MODE", "runmode", "dev"),
			CircularesCRUDBaseURL: normalizeBase(getString("CIRCULARES_CRUD_BASE_URL", "circulares_crud_base_url", "")),
			DocumentosBaseURL:     normalizeBase(getString("DOCUMENTOS_BASE_URL", "documentos_base_url", "")),
			NotificacionesBaseURL: normalizeBase(getString("NOTIFICACIONES_BASE_URL", "notificaciones_base_url", "")),
			OASBearerToken:        getString("OAS_BEARER_TOKEN", "oas_bearer_token", ""),
			JWTSecret:             getString("JWT_SECRET", "jwt_secret", ""),
			RequestTimeout:        time.Duration(getInt("REQUEST_TIMEOUT_MS", "request_timeout_ms", 10000)) * time.Millisecond,
			RetryCount:            getInt("RETRY_COUNT", "retry_count", 2),
			FirmaUmbralPuntos:     getInt("FIRMA_UMBRAL_PUNTOS", "firma_umbral_puntos", 30),
			SesionTTL:             time.Duration(getInt("SESION_TTL_MIN", "sesion_ttl_min", 120)) * time.Minute,
		}

		if cfg.CircularesCRUDBaseURL == "" {
			panic("CIRCULARES_CRUD_BASE_URL no configurado")
		}
		if cfg.DocumentosBaseURL == "" {
			panic("DOCUMENTOS_BASE_URL no configurado")
		}

		helpers.SetDefaultRetryCount(cfg.RetryCount)
	})
	return cfg
}

func getString(envKey, confKey, def string) string {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		return val
	}
	if val, err := beego.AppConfig.String(confKey); err == nil && strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func getInt(envKey, confKey string, def int) int {
	if val := strings.TrimSpace(os.Getenv(envKey)); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	if val, err := beego.AppConfig.Int(confKey); err == nil {
		return val
	}
	return def
}

func normalizeBase(value string) string {
	return strings.TrimSpace(value)
}

// BuildURL compone una URL asegurando que no haya dobles slashes.
func BuildURL(base string, elems ...string) string {
	trimmed := strings.TrimSuffix(base, "/")
	for _, e := range elems {
		trimmed += "/" + strings.Trim(e, "/")
	}
	return trimmed
}

// MustBuildURL es un helper para construir URLs y fallar rápido en caso de base vacía.
func MustBuildURL(base string, elems ...string) string {
	if base == "" {
		panic("base URL vacía")
	}
	return BuildURL(base, elems...)
}
