package main

import (
	"fmt"

	"github.com/escape-os/gimmix-testgen/utils"
)

// contextoConstruccion es el estado de una única pasada: asignadores, imagen, hojas
// y el contador global de tags. Se pasa explícitamente a cada paso recursivo.
type contextoConstruccion struct {
	config       *GeneradorConfig
	rv           ValorRV
	tamPagina    uint64
	imagen       *Imagen
	ptp          *asignadorBump
	pte          *asignadorMarcos
	hojas        []RegistroHoja
	siguienteTag uint64
	estadisticas *Estadisticas
	marcadores   map[uint64]int // dirección del marcador -> segmento vacío
}

// construirTablas genera la jerarquía completa de tablas para los cuatro segmentos
func construirTablas(config GeneradorConfig) (*Generacion, error) {
	if err := config.validar(); err != nil {
		utils.ErrorLog.Error("Configuración rechazada", "error", err)
		return nil, err
	}

	rv, err := codificarRV(config.Profundidades, config.ExponentePagina, config.DireccionRaiz, config.EspacioDirecciones)
	if err != nil {
		return nil, err
	}
	valorRV, err := validarRV(rv)
	if err != nil {
		utils.ErrorLog.Error("rV rechazado", "rv", utils.OctaMMIX(rv), "error", err)
		return nil, err
	}
	utils.InfoLog.Info("rV codificado", "rv", utils.OctaMMIX(rv))

	disposicion, err := calcularDisposicion(&config)
	if err != nil {
		return nil, err
	}

	ctx := &contextoConstruccion{
		config:       &config,
		rv:           valorRV,
		tamPagina:    config.TamanioPagina(),
		imagen:       nuevaImagen(),
		ptp:          nuevoAsignadorBump("PTP", disposicion.TablasPTP, TamanioTabla),
		pte:          nuevoAsignadorMarcos(disposicion.MarcosPTE, config.TamanioPagina()),
		hojas:        make([]RegistroHoja, 0, config.HojasEsperadas()),
		siguienteTag: config.Tag0(),
		estadisticas: &Estadisticas{},
		marcadores:   make(map[uint64]int),
	}

	for seg := 0; seg < CantidadSegmentos; seg++ {
		if err := ctx.construirSegmento(seg); err != nil {
			utils.ErrorLog.Error("Error construyendo segmento", "segmento", seg, "error", err)
			return nil, err
		}
	}

	ctx.estadisticas.loguear()

	return &Generacion{
		Config:       config,
		RV:           rv,
		Disposicion:  disposicion,
		Imagen:       ctx.imagen,
		Hojas:        ctx.hojas,
		Estadisticas: *ctx.estadisticas,
	}, nil
}

// construirSegmento arma el árbol de un segmento. Un segmento de profundidad 0 deja
// un único marcador en 0 en su ranura de la raíz y no genera hojas.
func (ctx *contextoConstruccion) construirSegmento(segmento int) error {
	d := ctx.config.Profundidad(segmento)
	ctx.estadisticas.Segmentos[segmento].Profundidad = d

	utils.InfoLog.Info("Construyendo segmento", "segmento", segmento, "profundidad", d,
		"base", utils.OctaMMIX(BaseSegmento(segmento)))

	if d == 0 {
		marcador := ctx.rv.PaginaRaiz(segmento, 0) + uint64(segmento)*TamanioEntrada
		ctx.escribir(segmento, marcador, 0)
		ctx.marcadores[marcador] = segmento
		utils.InfoLog.Debug("Segmento sin mapear", "segmento", segmento, "marcador", utils.HexMMIX(marcador))
		return nil
	}

	ctx.pte.nuevoSegmento()
	return ctx.construirRaiz(segmento, d, BaseSegmento(segmento))
}

// construirRaiz arma la cadena de las direcciones que necesitan exactamente `niveles`
// tablas; su tabla superior es la página raíz b[i] + niveles - 1
func (ctx *contextoConstruccion) construirRaiz(segmento, niveles int, base uint64) error {
	tabla := ctx.rv.PaginaRaiz(segmento, niveles-1)
	ctx.estadisticas.registrarRaiz(segmento)
	return ctx.construirNivel(segmento, tabla, niveles-1, niveles, base, true)
}

// construirNivel recorre las entradas de una tabla. nivel = 0 es el nivel de las hojas;
// cada entrada cubre página × 1024^nivel bytes de espacio virtual.
func (ctx *contextoConstruccion) construirNivel(segmento int, tabla uint64, nivel, niveles int, base uint64, esRaiz bool) error {
	mapSize, ok := tamanioMapa(ctx.tamPagina, nivel)
	if !ok {
		return fmt.Errorf("%w: el nivel %d del segmento %d no entra en 64 bits",
			ErrDesbordeDireccion, nivel, segmento)
	}

	for _, entrada := range ctx.config.Entradas {
		dir := base + uint64(entrada)*mapSize
		ranura := tabla + uint64(entrada)*TamanioEntrada

		switch {
		case nivel == 0:
			if err := ctx.emitirPTE(segmento, niveles, ranura, dir); err != nil {
				return err
			}

		case esRaiz && entrada == 0:
			// Con índice superior 0 la MMU resuelve la dirección desde la raíz inmediata inferior
			if err := ctx.construirRaiz(segmento, nivel, dir); err != nil {
				return err
			}

		default:
			siguiente, err := ctx.ptp.asignar()
			if err != nil {
				return err
			}
			ctx.estadisticas.registrarTabla(segmento)
			ctx.escribir(segmento, ranura, valorPTP(siguiente, ctx.config.EspacioDirecciones))

			utils.InfoLog.Debug("PTP escrito", "segmento", segmento, "nivel", nivel,
				"ranura", utils.HexMMIX(ranura), "tabla", utils.HexMMIX(siguiente))

			if err := ctx.construirNivel(segmento, siguiente, nivel-1, niveles, dir, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitirPTE escribe la entrada hoja y agrega su RegistroHoja con el próximo tag
func (ctx *contextoConstruccion) emitirPTE(segmento, niveles int, ranura, pagina uint64) error {
	marcosAntes := ctx.pte.marcos.asignados()
	marco, indice, err := ctx.pte.asignarRanura()
	if err != nil {
		return err
	}

	dir := pagina + uint64(indice)*TamanioEntrada
	if dir-BaseSegmento(segmento) >= 1<<BitsSegmento {
		return fmt.Errorf("%w: la hoja %s sale del segmento %d", ErrDesbordeDireccion, utils.OctaMMIX(dir), segmento)
	}

	ctx.escribir(segmento, ranura, valorPTE(marco, ctx.config.EspacioDirecciones))
	ctx.estadisticas.registrarHoja(segmento, ctx.pte.marcos.asignados() != marcosAntes)

	hoja := RegistroHoja{
		Segmento:         segmento,
		Niveles:          niveles,
		DireccionVirtual: dir,
		DireccionPTE:     ranura,
		Marco:            marco,
		Ranura:           indice,
		Tag:              ctx.siguienteTag,
	}
	ctx.hojas = append(ctx.hojas, hoja)
	ctx.siguienteTag++

	utils.InfoLog.Debug("PTE escrito", "segmento", segmento, "niveles", niveles,
		"va", utils.OctaMMIX(dir), "marco", utils.HexMMIX(marco), "tag", utils.HexMMIX(hoja.Tag))
	return nil
}

// escribir registra la escritura en la imagen. Solo un marcador de segmento vacío puede
// quedar pisado, cuando la raíz del segmento siguiente comparte esa página.
func (ctx *contextoConstruccion) escribir(segmento int, dir, valor uint64) {
	if ctx.imagen.Escribir(dir, valor) {
		if vacio, ok := ctx.marcadores[dir]; ok {
			delete(ctx.marcadores, dir)
			ctx.estadisticas.registrarMarcadorReemplazado(vacio)
			utils.ErrorLog.Warn("Marcador de segmento vacío reemplazado",
				"segmento_vacio", vacio, "segmento", segmento,
				"direccion", utils.HexMMIX(dir), "valor", utils.OctaMMIX(valor))
		}
	}
	ctx.estadisticas.registrarEscritura(segmento)
}
