package main

import (
	"fmt"

	"github.com/escape-os/gimmix-testgen/utils"
)

// asignadorBump entrega bloques consecutivos de una región fija; nunca libera
type asignadorBump struct {
	nombre  string
	region  Region
	bloque  uint64
	cursor  uint64
	entrega int
}

func nuevoAsignadorBump(nombre string, region Region, bloque uint64) *asignadorBump {
	return &asignadorBump{
		nombre: nombre,
		region: region,
		bloque: bloque,
		cursor: region.Inicio,
	}
}

// asignar devuelve el siguiente bloque libre de la región
func (a *asignadorBump) asignar() (uint64, error) {
	if a.cursor+a.bloque < a.cursor || !a.region.Contiene(a.cursor+a.bloque-1) {
		utils.ErrorLog.Error("Región agotada", "asignador", a.nombre,
			"inicio", utils.HexMMIX(a.region.Inicio), "fin", utils.HexMMIX(a.region.Fin))
		return 0, fmt.Errorf("%w: %s sin espacio tras %d bloques", ErrAsignadorAgotado, a.nombre, a.entrega)
	}
	dir := a.cursor
	a.cursor += a.bloque
	a.entrega++

	utils.InfoLog.Debug("Bloque asignado", "asignador", a.nombre, "direccion", utils.HexMMIX(dir))
	return dir, nil
}

// asignados devuelve la cantidad de bloques entregados
func (a *asignadorBump) asignados() int {
	return a.entrega
}

// asignadorMarcos reparte ranuras de un octa dentro de marcos de página. Cada segmento
// abre un marco nuevo y las ranuras sucesivas corresponden a tags sucesivos.
type asignadorMarcos struct {
	marcos          *asignadorBump
	ranurasPorMarco int
	marcoActual     uint64
	siguiente       int
	abierto         bool
}

func nuevoAsignadorMarcos(region Region, tamPagina uint64) *asignadorMarcos {
	return &asignadorMarcos{
		marcos:          nuevoAsignadorBump("PTE", region, tamPagina),
		ranurasPorMarco: int(tamPagina / TamanioEntrada),
	}
}

// nuevoSegmento fuerza a que la próxima ranura salga de un marco nuevo
func (a *asignadorMarcos) nuevoSegmento() {
	a.abierto = false
}

// asignarRanura devuelve el marco y la ranura para la próxima hoja
func (a *asignadorMarcos) asignarRanura() (uint64, int, error) {
	if !a.abierto || a.siguiente == a.ranurasPorMarco {
		marco, err := a.marcos.asignar()
		if err != nil {
			return 0, 0, err
		}
		a.marcoActual = marco
		a.siguiente = 0
		a.abierto = true
	}
	ranura := a.siguiente
	a.siguiente++
	return a.marcoActual, ranura, nil
}

// calcularDisposicion reserva las regiones de raíz, tablas PTP, marcos PTE y programa,
// en ese orden y sin solaparse, antes de asignar nada
func calcularDisposicion(c *GeneradorConfig) (Disposicion, error) {
	var d Disposicion
	tamPagina := c.TamanioPagina()

	// Una página extra para los marcadores de segmentos vacíos al final
	paginasRaiz := uint64(c.Profundidades[CantidadSegmentos-1]) + 1
	d.Raiz = Region{Inicio: c.DireccionRaiz, Fin: c.DireccionRaiz + paginasRaiz*TamanioTabla}

	tablas, marcos := 0, 0
	ranuras := int(tamPagina / TamanioEntrada)
	for seg := 0; seg < CantidadSegmentos; seg++ {
		tablas += tablasIntermedias(len(c.Entradas), c.Profundidad(seg))
		hojas := c.hojasSegmento(seg)
		marcos += (hojas + ranuras - 1) / ranuras
	}

	inicioPTP := alinear(d.Raiz.Fin, TamanioTabla)
	d.TablasPTP = Region{Inicio: inicioPTP, Fin: inicioPTP + uint64(tablas)*TamanioTabla}

	inicioPTE := alinear(d.TablasPTP.Fin, tamPagina)
	d.MarcosPTE = Region{Inicio: inicioPTE, Fin: inicioPTE + uint64(marcos)*tamPagina}

	d.Programa = alinear(d.MarcosPTE.Fin, TamanioTabla)

	if d.Programa >= 1<<BitsDireccionFisica || d.Programa < d.Raiz.Inicio {
		return Disposicion{}, fmt.Errorf("%w: las regiones físicas terminan en %#x, más allá de 2^%d",
			ErrDesbordeDireccion, d.Programa, BitsDireccionFisica)
	}
	if err := verificarDisjuntas(d); err != nil {
		return Disposicion{}, err
	}

	utils.InfoLog.Info("Disposición física calculada",
		"raiz", utils.HexMMIX(d.Raiz.Inicio),
		"tablas_ptp", tablas,
		"inicio_ptp", utils.HexMMIX(d.TablasPTP.Inicio),
		"marcos_pte", marcos,
		"inicio_pte", utils.HexMMIX(d.MarcosPTE.Inicio),
		"programa", utils.HexMMIX(d.Programa))
	return d, nil
}

// verificarDisjuntas exige que raíz, tablas PTP y marcos PTE no compartan bytes
func verificarDisjuntas(d Disposicion) error {
	regiones := []struct {
		nombre string
		region Region
	}{
		{"raiz", d.Raiz},
		{"tablas PTP", d.TablasPTP},
		{"marcos PTE", d.MarcosPTE},
	}
	for i := range regiones {
		for j := i + 1; j < len(regiones); j++ {
			a, b := regiones[i], regiones[j]
			if a.region.SeSolapa(b.region) {
				return fmt.Errorf("%w: la región %s [%#x,%#x) se solapa con %s [%#x,%#x)",
					ErrDesbordeDireccion, a.nombre, a.region.Inicio, a.region.Fin,
					b.nombre, b.region.Inicio, b.region.Fin)
			}
		}
	}
	return nil
}

// tablasIntermedias acota las tablas que cuelgan de PTPs: Σ |entradas|^L para L en 1..d-1
func tablasIntermedias(entradas, profundidad int) int {
	total, potencia := 0, 1
	for nivel := 1; nivel < profundidad; nivel++ {
		potencia *= entradas
		total += potencia
	}
	return total
}

func alinear(dir, alineacion uint64) uint64 {
	return (dir + alineacion - 1) &^ (alineacion - 1)
}
