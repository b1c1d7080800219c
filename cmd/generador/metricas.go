package main

import (
	"github.com/escape-os/gimmix-testgen/utils"
)

// EstadisticasSegmento almacena lo que aportó un segmento a la generación
type EstadisticasSegmento struct {
	Profundidad         int
	TablasAsignadas     int
	EscriturasTabla     int
	Hojas               int
	MarcosAsignados     int
	RaicesUtilizadas    int
	MarcadorReemplazado bool // Otro segmento escribió sobre el marcador en 0
}

// Estadisticas agrupa las métricas de una corrida
type Estadisticas struct {
	Segmentos [CantidadSegmentos]EstadisticasSegmento
}

// TotalHojas devuelve la cantidad de hojas de todos los segmentos
func (e *Estadisticas) TotalHojas() int {
	total := 0
	for _, s := range e.Segmentos {
		total += s.Hojas
	}
	return total
}

// TotalTablas devuelve las tablas tomadas del asignador PTP
func (e *Estadisticas) TotalTablas() int {
	total := 0
	for _, s := range e.Segmentos {
		total += s.TablasAsignadas
	}
	return total
}

// Actualizar métricas de escritura en una tabla
func (e *Estadisticas) registrarEscritura(segmento int) {
	e.Segmentos[segmento].EscriturasTabla++
}

// Actualizar métricas de tablas asignadas
func (e *Estadisticas) registrarTabla(segmento int) {
	e.Segmentos[segmento].TablasAsignadas++
}

// Actualizar métricas de hojas generadas
func (e *Estadisticas) registrarHoja(segmento int, marcoNuevo bool) {
	e.Segmentos[segmento].Hojas++
	if marcoNuevo {
		e.Segmentos[segmento].MarcosAsignados++
	}
}

// Actualizar métricas de páginas raíz usadas
func (e *Estadisticas) registrarRaiz(segmento int) {
	e.Segmentos[segmento].RaicesUtilizadas++
}

// Actualizar métricas de marcadores pisados
func (e *Estadisticas) registrarMarcadorReemplazado(segmento int) {
	e.Segmentos[segmento].MarcadorReemplazado = true
}

// loguear vuelca las métricas por segmento
func (e *Estadisticas) loguear() {
	for seg, s := range e.Segmentos {
		utils.InfoLog.Info("Métricas de segmento",
			"segmento", seg,
			"profundidad", s.Profundidad,
			"raices", s.RaicesUtilizadas,
			"tablas", s.TablasAsignadas,
			"escrituras", s.EscriturasTabla,
			"hojas", s.Hojas,
			"marcos", s.MarcosAsignados,
			"marcador_reemplazado", s.MarcadorReemplazado)
	}
	utils.InfoLog.Info("Métricas totales", "hojas", e.TotalHojas(), "tablas", e.TotalTablas())
}
