package firma

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
)

// UmbralMinPuntos es el mínimo de puntos acumulados para aceptar una firma.
// Por debajo la firma se trata como ausente, nunca como error: así un tap
// aislado no se convierte en una firma vinculante.
const UmbralMinPuntos = 30

// Dimensiones por defecto del lienzo antes del primer Redimensionar.
const (
	AnchoDefecto = 600
	AltoDefecto  = 200
)

// Punto es una coordenada de trazo relativa al lienzo actual.
type Punto struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Capturador abstrae el mecanismo de captura de trazos para que el asistente
// no dependa de la fuente de eventos (pointer nativo, librería de canvas, etc.).
type Capturador interface {
	IniciarTrazo()
	AgregarPunto(p Punto)
	TerminarTrazo()
	Limpiar()
	Redimensionar(anchoContenedor, altoContenedor int, dpr float64)
	Exportar() string
}

// Motor acumula trazos en memoria y los exporta como raster PNG en data URL.
// No realiza llamadas de red.
type Motor struct {
	umbral  int
	ancho   int
	alto    int
	trazos  [][]Punto
	actual  []Punto
	abierto bool
}

// NewMotor crea un motor con el umbral de tinta indicado (<=0 usa el default).
func NewMotor(umbral int) *Motor {
	if umbral <= 0 {
		umbral = UmbralMinPuntos
	}
	return &Motor{
		umbral: umbral,
		ancho:  AnchoDefecto,
		alto:   AltoDefecto,
	}
}

// IniciarTrazo abre un trazo nuevo; cierra el anterior si quedó abierto.
func (m *Motor) IniciarTrazo() {
	if m.abierto {
		m.TerminarTrazo()
	}
	m.actual = nil
	m.abierto = true
}

// AgregarPunto acumula un punto en el trazo abierto. Sin trazo abierto es no-op.
func (m *Motor) AgregarPunto(p Punto) {
	if !m.abierto {
		return
	}
	m.actual = append(m.actual, p)
}

// TerminarTrazo cierra el trazo en curso y lo suma al total capturado.
func (m *Motor) TerminarTrazo() {
	if !m.abierto {
		return
	}
	if len(m.actual) > 0 {
		m.trazos = append(m.trazos, m.actual)
	}
	m.actual = nil
	m.abierto = false
}

// Limpiar descarta todos los trazos acumulados.
func (m *Motor) Limpiar() {
	m.trazos = nil
	m.actual = nil
	m.abierto = false
}

// Redimensionar ajusta el lienzo al ancho del contenedor por el device pixel
// ratio. Las coordenadas de trazo son relativas al lienzo, así que un resize
// siempre invalida y limpia la firma en curso.
func (m *Motor) Redimensionar(anchoContenedor, altoContenedor int, dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	if anchoContenedor > 0 {
		m.ancho = int(math.Round(float64(anchoContenedor) * dpr))
	}
	if altoContenedor > 0 {
		m.alto = int(math.Round(float64(altoContenedor) * dpr))
	}
	m.Limpiar()
}

// TotalPuntos retorna los puntos capturados en trazos cerrados y el abierto.
func (m *Motor) TotalPuntos() int {
	total := len(m.actual)
	for _, t := range m.trazos {
		total += len(t)
	}
	return total
}

// Valida indica si la firma alcanza el umbral de tinta.
func (m *Motor) Valida() bool {
	return m.TotalPuntos() >= m.umbral
}

// Exportar rasteriza los trazos a PNG y retorna un data URL base64.
// Retorna cadena vacía cuando la firma no alcanza el umbral: el consumidor
// debe tratarla como firma ausente.
func (m *Motor) Exportar() string {
	if !m.Valida() {
		return ""
	}

	img := image.NewRGBA(image.Rect(0, 0, m.ancho, m.alto))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	tinta := color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	dibujar := func(puntos []Punto) {
		for i, p := range puntos {
			m.pintar(img, p, tinta)
			if i > 0 {
				m.segmento(img, puntos[i-1], p, tinta)
			}
		}
	}
	for _, t := range m.trazos {
		dibujar(t)
	}
	dibujar(m.actual)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// pintar dibuja un punto de 2x2 px acotado al lienzo.
func (m *Motor) pintar(img *image.RGBA, p Punto, c color.RGBA) {
	x := int(math.Round(p.X))
	y := int(math.Round(p.Y))
	for dx := 0; dx < 2; dx++ {
		for dy := 0; dy < 2; dy++ {
			px, py := x+dx, y+dy
			if px >= 0 && px < m.ancho && py >= 0 && py < m.alto {
				img.SetRGBA(px, py, c)
			}
		}
	}
}

// segmento interpola linealmente entre dos puntos consecutivos de un trazo.
func (m *Motor) segmento(img *image.RGBA, a, b Punto, c color.RGBA) {
	dist := math.Hypot(b.X-a.X, b.Y-a.Y)
	pasos := int(dist)
	if pasos < 1 {
		return
	}
	for i := 1; i < pasos; i++ {
		t := float64(i) / float64(pasos)
		m.pintar(img, Punto{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}, c)
	}
}
