package consentimiento

// Fuente indica el origen del dato de un campo del asistente.
type Fuente string

const (
	// FuenteServidor marca valores sembrados desde los servicios externos.
	FuenteServidor Fuente = "servidor"
	// FuenteUsuario marca valores tocados por el familiar en la sesión.
	FuenteUsuario Fuente = "usuario"
)

// Valor es un dato etiquetado con su origen. La regla de fusión del agregador
// opera sobre esta unión en lugar de depender del orden de aplicación.
type Valor[T any] struct {
	Fuente Fuente
	Dato   T
}

// DeServidor construye un valor sembrado por el servidor.
func DeServidor[T any](dato T) Valor[T] {
	return Valor[T]{Fuente: FuenteServidor, Dato: dato}
}

// DeUsuario construye un valor editado por el usuario.
func DeUsuario[T any](dato T) Valor[T] {
	return Valor[T]{Fuente: FuenteUsuario, Dato: dato}
}

// Fusionar resuelve un valor actual contra uno entrante: una edición del
// usuario siempre gana y un default de servidor nunca pisa un campo ya tocado.
func Fusionar[T any](actual, entrante Valor[T]) Valor[T] {
	if entrante.Fuente == FuenteUsuario {
		return entrante
	}
	if actual.Fuente == FuenteUsuario {
		return actual
	}
	return entrante
}
