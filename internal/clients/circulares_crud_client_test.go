package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/models"
	rootservices "github.com/grupoazimut/circulares_mid/services"
)

func clientePrueba(baseURL string) *CircularesCRUDClient {
	return &CircularesCRUDClient{
		cfg: rootservices.Config{
			CircularesCRUDBaseURL: baseURL,
			RequestTimeout:        2 * time.Second,
		},
	}
}

func TestGetConsentConfigConsultaYRellena(t *testing.T) {
	var capturado *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturado = r.Clone(context.Background())
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"Success": true,
			"Status":  200,
			"Message": "OK",
			"Data": map[string]interface{}{
				"Circular": map[string]interface{}{"Titulo": "Acampada de otoño"},
				"Educando": map[string]interface{}{"NombreCompleto": "Juan Pérez"},
			},
		})
	}))
	defer srv.Close()

	c := clientePrueba(srv.URL)
	cfg, err := c.GetConsentConfig(context.Background(), 7, 21, map[string]string{"Authorization": "Bearer abc"})
	if err != nil {
		t.Fatalf("GetConsentConfig: %v", err)
	}

	if capturado.Method != http.MethodGet {
		t.Fatalf("método = %s, esperaba GET", capturado.Method)
	}
	if got := capturado.URL.Path; got != "/circulares/7/consentimiento" {
		t.Fatalf("path = %s", got)
	}
	if got := capturado.URL.Query().Get("educando_id"); got != "21" {
		t.Fatalf("educando_id = %q", got)
	}
	if got := capturado.Header.Get("Authorization"); got != "Bearer abc" {
		t.Fatalf("Authorization no propagado, got %q", got)
	}

	if cfg.Circular.Titulo != "Acampada de otoño" {
		t.Fatalf("circular = %+v", cfg.Circular)
	}
	// Los ids se rellenan cuando el servicio no los ecoa.
	if cfg.Circular.Id != 7 || cfg.Educando.Id != 21 {
		t.Fatalf("ids rellenados = (%d,%d), esperaba (7,21)", cfg.Circular.Id, cfg.Educando.Id)
	}
}

func TestGetConsentConfigMapea404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := clientePrueba(srv.URL).GetConsentConfig(context.Background(), 99, 21, nil)
	if err == nil {
		t.Fatal("circular inexistente debe fallar")
	}
	appErr := helpers.AsAppError(err, "")
	if appErr.Status != http.StatusNotFound {
		t.Fatalf("status = %d, esperaba 404", appErr.Status)
	}
}

func TestActualizarPerfilSaludEnvia(t *testing.T) {
	var capturado *http.Request
	var cuerpo models.PerfilSaludData
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturado = r.Clone(context.Background())
		_ = json.NewDecoder(r.Body).Decode(&cuerpo)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"Success": true, "Message": "OK"})
	}))
	defer srv.Close()

	perfil := models.PerfilSaludData{Alergias: "frutos secos", PuedeHacerDeporte: true}
	if err := clientePrueba(srv.URL).ActualizarPerfilSalud(context.Background(), 21, perfil, nil); err != nil {
		t.Fatalf("ActualizarPerfilSalud: %v", err)
	}

	if capturado.Method != http.MethodPut {
		t.Fatalf("método = %s, esperaba PUT", capturado.Method)
	}
	if got := capturado.URL.Path; got != "/educandos/21/perfil_salud" {
		t.Fatalf("path = %s", got)
	}
	if cuerpo.Alergias != "frutos secos" {
		t.Fatalf("cuerpo = %+v", cuerpo)
	}
}
