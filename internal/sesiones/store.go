package sesiones

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grupoazimut/circulares_mid/helpers"
	"github.com/grupoazimut/circulares_mid/internal/consentimiento"
	"github.com/grupoazimut/circulares_mid/internal/firma"
	"github.com/grupoazimut/circulares_mid/models"
)

// Sesion agrupa el estado de un asistente en curso. Cada sesión tiene un
// único editor (el familiar que la creó); el mutex serializa las mutaciones
// del agregador/secuenciador pero nunca se retiene durante llamadas de red:
// el protocolo gestiona su propio candado de un solo vuelo.
type Sesion struct {
	Id         string
	FamiliarId int64

	Config       models.ConsentConfig
	Agregador    *consentimiento.Agregador
	Secuenciador *consentimiento.Secuenciador
	Protocolo    *consentimiento.Protocolo
	Firma        *firma.Motor

	mu        sync.Mutex
	ultimoUso time.Time
}

// Bloquear toma el candado de edición de la sesión.
func (s *Sesion) Bloquear() { s.mu.Lock() }

// Liberar suelta el candado de edición.
func (s *Sesion) Liberar() { s.mu.Unlock() }

// Store mantiene en memoria las sesiones activas del asistente, indexadas
// por UUID. Las sesiones sin uso expiran de forma perezosa.
type Store struct {
	mu       sync.Mutex
	sesiones map[string]*Sesion
	ttl      time.Duration
	now      func() time.Time
}

// NewStore crea un store con el TTL de inactividad indicado (<=0 sin expiración).
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sesiones: make(map[string]*Sesion),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Crear registra una sesión nueva y retorna su identificador.
func (st *Store) Crear(familiarID int64, cfg models.ConsentConfig, ag *consentimiento.Agregador, seq *consentimiento.Secuenciador, prot *consentimiento.Protocolo, motor *firma.Motor) *Sesion {
	ses := &Sesion{
		Id:           uuid.NewString(),
		FamiliarId:   familiarID,
		Config:       cfg,
		Agregador:    ag,
		Secuenciador: seq,
		Protocolo:    prot,
		Firma:        motor,
		ultimoUso:    st.now(),
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.purgar()
	st.sesiones[ses.Id] = ses
	return ses
}

// Obtener recupera una sesión vigente verificando que pertenezca al familiar.
func (st *Store) Obtener(id string, familiarID int64) (*Sesion, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.purgar()

	ses, ok := st.sesiones[id]
	if !ok {
		return nil, helpers.NewAppError(http.StatusNotFound, "sesión no encontrada o expirada", nil)
	}
	if ses.FamiliarId != familiarID {
		return nil, helpers.NewAppError(http.StatusForbidden, "la sesión pertenece a otro familiar", nil)
	}
	ses.ultimoUso = st.now()
	return ses, nil
}

// Eliminar descarta una sesión (cancelación explícita).
func (st *Store) Eliminar(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sesiones, id)
}

// purgar elimina sesiones vencidas. Se invoca con el candado tomado.
func (st *Store) purgar() {
	if st.ttl <= 0 {
		return
	}
	limite := st.now().Add(-st.ttl)
	for id, ses := range st.sesiones {
		if ses.ultimoUso.Before(limite) {
			delete(st.sesiones, id)
		}
	}
}
