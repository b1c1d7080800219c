package main

const (
	bitPTP         = uint64(1) << 63 // marca de PTP válido
	permisosPTE    = 0x7             // r|w|x
	desplazamiento = 3               // posición de n en rV, PTP y PTE
)

// RegistroHoja es una hoja generada: la pareja (dirección virtual, valor esperado)
// que comparten el programa y el oráculo
type RegistroHoja struct {
	Segmento         int
	Niveles          int    // Tablas recorridas por el hardware para esta dirección
	DireccionVirtual uint64 // Incluye el desplazamiento de la ranura dentro del marco
	DireccionPTE     uint64 // Dirección física de la ranura PTE
	Marco            uint64 // Marco físico mapeado
	Ranura           int    // Octa dentro del marco
	Tag              uint64 // Valor que el programa escribe y luego relee
}

// DireccionFisica devuelve la dirección física del octa escrito por la hoja
func (h RegistroHoja) DireccionFisica() uint64 {
	return h.Marco + uint64(h.Ranura)*TamanioEntrada
}

// Disposicion describe las regiones físicas reservadas antes de construir
type Disposicion struct {
	Raiz      Region
	TablasPTP Region
	MarcosPTE Region
	Programa  uint64
}

// Region es un rango físico [Inicio, Fin)
type Region struct {
	Inicio uint64
	Fin    uint64
}

// Contiene indica si la dirección cae dentro de la región
func (r Region) Contiene(dir uint64) bool {
	return dir >= r.Inicio && dir < r.Fin
}

// SeSolapa indica si dos regiones comparten algún byte
func (r Region) SeSolapa(otra Region) bool {
	return r.Inicio < otra.Fin && otra.Inicio < r.Fin
}

// Generacion es el resultado completo de una pasada de construcción
type Generacion struct {
	Config       GeneradorConfig
	RV           uint64
	Disposicion  Disposicion
	Imagen       *Imagen
	Hojas        []RegistroHoja
	Estadisticas Estadisticas
}

// BaseSegmento devuelve la primera dirección virtual del segmento
func BaseSegmento(segmento int) uint64 {
	return uint64(segmento) << BitsSegmento
}

func valorPTP(tabla uint64, n int) uint64 {
	return bitPTP | tabla | uint64(n)<<desplazamiento
}

func valorPTE(marco uint64, n int) uint64 {
	return marco | uint64(n)<<desplazamiento | permisosPTE
}
