package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorrerImagen resuelve una dirección virtual sobre la imagen como lo hace la MMU:
// elige la raíz b[i] + j según la magnitud del número de página y baja por los PTPs.
// Devuelve la dirección física y la cantidad de tablas recorridas.
func recorrerImagen(t *testing.T, gen *Generacion, va uint64) (uint64, int) {
	t.Helper()
	v := decodificarRV(gen.RV)
	segmento := int(va >> BitsSegmento)
	dir := va & (1<<BitsSegmento - 1)
	tamPagina := uint64(1) << uint(v.S)

	numPagina := dir >> uint(v.S)
	limite := uint64(1) << uint(10*(v.Bordes[segmento+1]-v.Bordes[segmento]))
	require.Less(t, numPagina, limite, "va %#x fuera del límite del segmento", va)

	j := 0
	for p := numPagina; p >= EntradasPorTabla; p /= EntradasPorTabla {
		j++
	}
	niveles := j + 1

	tabla := v.PaginaRaiz(segmento, j)
	for ; j > 0; j-- {
		ax := (numPagina >> uint(10*j)) & (EntradasPorTabla - 1)
		ptp, ok := gen.Imagen.Leer(tabla + ax*TamanioEntrada)
		require.True(t, ok, "PTP ausente en %#x", tabla+ax*TamanioEntrada)
		require.NotZero(t, ptp&bitPTP, "PTP sin bit de validez")
		require.Equal(t, uint64(v.N), (ptp>>3)&mascaraN, "n del PTP")
		tabla = (ptp &^ bitPTP) &^ (TamanioTabla - 1)
	}

	a0 := numPagina & (EntradasPorTabla - 1)
	pte, ok := gen.Imagen.Leer(tabla + a0*TamanioEntrada)
	require.True(t, ok, "PTE ausente en %#x", tabla+a0*TamanioEntrada)
	require.Equal(t, uint64(v.N), (pte>>3)&mascaraN, "n del PTE")
	require.Equal(t, uint64(permisosPTE), pte&permisosPTE, "permisos del PTE")

	marco := pte &^ (tamPagina - 1) & (1<<BitsDireccionFisica - 1)
	return marco + dir&(tamPagina-1), niveles
}

func TestConstruirTablas_EscenarioA(t *testing.T) {
	gen, err := construirTablas(configEscenarioA())
	require.NoError(t, err)

	assert.Equal(t, uint64(0x00000D0000002028), gen.RV)
	assert.Empty(t, gen.Hojas)

	// Un marcador en 0 por segmento, cada uno en su ranura de la raíz
	require.Equal(t, 4, gen.Imagen.Len())
	for seg := 0; seg < CantidadSegmentos; seg++ {
		valor, ok := gen.Imagen.Leer(0x2000 + uint64(seg)*8)
		require.True(t, ok, "segmento %d sin marcador", seg)
		assert.Zero(t, valor)

		s := gen.Estadisticas.Segmentos[seg]
		assert.Equal(t, 1, s.EscriturasTabla, "segmento %d", seg)
		assert.Zero(t, s.Hojas)
		assert.Zero(t, s.TablasAsignadas)
	}
}

func TestConstruirTablas_EscenarioB_ProfundidadCinco(t *testing.T) {
	c := configEscenarioB()
	c.Profundidades = [4]int{1, 3, 4, 9}

	gen, err := construirTablas(c)
	require.ErrorIs(t, err, ErrConfiguracion)
	assert.Nil(t, gen)
}

func TestConstruirTablas_EscenarioB(t *testing.T) {
	c := configEscenarioB()
	gen, err := construirTablas(c)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x13480D0000002020), gen.RV)
	require.Len(t, gen.Hojas, c.HojasEsperadas())

	porSegmento := [4]int{}
	for _, h := range gen.Hojas {
		porSegmento[h.Segmento]++
	}
	assert.Equal(t, [4]int{2, 4, 2, 16}, porSegmento)

	// Las primeras hojas, calculadas a mano
	assert.Equal(t, RegistroHoja{
		Segmento: 0, Niveles: 1, DireccionVirtual: 0x2000,
		DireccionPTE: 0x2008, Marco: 0x34000, Ranura: 0, Tag: 0x1000,
	}, gen.Hojas[0])
	assert.Equal(t, RegistroHoja{
		Segmento: 0, Niveles: 1, DireccionVirtual: 0x162008,
		DireccionPTE: 0x2588, Marco: 0x34000, Ranura: 1, Tag: 0x1001,
	}, gen.Hojas[1])
	assert.Equal(t, RegistroHoja{
		Segmento: 1, Niveles: 2, DireccionVirtual: 0x2000000000802000,
		DireccionPTE: 0x14008, Marco: 0x36000, Ranura: 0, Tag: 0x1002,
	}, gen.Hojas[2])

	ptp, ok := gen.Imagen.Leer(0x6008)
	require.True(t, ok)
	assert.Equal(t, uint64(0x8000000000014020), ptp)

	pte, ok := gen.Imagen.Leer(0x2008)
	require.True(t, ok)
	assert.Equal(t, uint64(0x34027), pte)

	s := gen.Estadisticas.Segmentos
	assert.Equal(t, 2, s[1].TablasAsignadas)
	assert.Equal(t, 14, s[3].TablasAsignadas)
	assert.Equal(t, 16, gen.Estadisticas.TotalTablas())
}

func TestConstruirTablas_CantidadDeHojas(t *testing.T) {
	casos := []struct {
		nombre        string
		profundidades [4]int
		entradas      []int
	}{
		{"un nivel", [4]int{1, 1, 1, 1}, []int{3}},
		{"dos niveles, tres entradas", [4]int{0, 2, 2, 2}, []int{5, 9, 1000}},
		{"todos los segmentos", [4]int{1, 2, 3, 4}, []int{2, 3}},
		{"cuatro niveles", [4]int{0, 0, 0, 4}, []int{1, 2, 3}},
		{"índice 0", [4]int{2, 4, 6, 8}, []int{0, 5}},
	}

	for _, caso := range casos {
		t.Run(caso.nombre, func(t *testing.T) {
			c := configEscenarioB()
			c.Profundidades = caso.profundidades
			c.Entradas = caso.entradas

			gen, err := construirTablas(c)
			require.NoError(t, err)

			esperadas := 0
			for seg := 0; seg < CantidadSegmentos; seg++ {
				d := c.Profundidad(seg)
				hojas := 0
				if d > 0 {
					hojas = 1
					for i := 0; i < d; i++ {
						hojas *= len(caso.entradas)
					}
				} else {
					assert.Equal(t, 1, gen.Estadisticas.Segmentos[seg].EscriturasTabla,
						"segmento vacío %d", seg)
				}
				assert.Equal(t, hojas, gen.Estadisticas.Segmentos[seg].Hojas, "segmento %d", seg)
				esperadas += hojas
			}
			assert.Len(t, gen.Hojas, esperadas)
		})
	}
}

func TestConstruirTablas_Invariantes(t *testing.T) {
	c := configEscenarioB()
	c.Profundidades = [4]int{2, 4, 6, 8}
	c.Entradas = []int{0, 5, 1023}

	gen, err := construirTablas(c)
	require.NoError(t, err)
	d := gen.Disposicion

	// Regiones disjuntas
	assert.False(t, d.Raiz.SeSolapa(d.TablasPTP))
	assert.False(t, d.Raiz.SeSolapa(d.MarcosPTE))
	assert.False(t, d.TablasPTP.SeSolapa(d.MarcosPTE))
	assert.GreaterOrEqual(t, d.Programa, d.MarcosPTE.Fin)

	vistas := make(map[uint64]bool)
	for i, h := range gen.Hojas {
		// Tags contiguos desde el tag inicial
		assert.Equal(t, c.Tag0()+uint64(i), h.Tag)

		// Direcciones distintas y dentro del segmento
		assert.False(t, vistas[h.DireccionVirtual], "va repetida %#x", h.DireccionVirtual)
		vistas[h.DireccionVirtual] = true
		assert.Equal(t, h.Segmento, int(h.DireccionVirtual>>BitsSegmento))

		// Los marcos salen de la región PTE
		assert.True(t, d.MarcosPTE.Contiene(h.Marco), "marco %#x", h.Marco)

		// La tabla resuelve la dirección al octa del marco
		fisica, niveles := recorrerImagen(t, gen, h.DireccionVirtual)
		assert.Equal(t, h.DireccionFisica(), fisica, "hoja %d", i)
		assert.Equal(t, h.Niveles, niveles, "hoja %d", i)
	}

	// Todo PTP apunta dentro de la región PTP
	for _, e := range gen.Imagen.Escrituras() {
		if e.Valor&bitPTP != 0 {
			destino := (e.Valor &^ bitPTP) &^ (TamanioTabla - 1)
			assert.True(t, d.TablasPTP.Contiene(destino), "PTP %#x -> %#x", e.Direccion, destino)
		}
	}
}

func TestConstruirTablas_IndiceCeroUsaRaizInferior(t *testing.T) {
	c := configEscenarioB()
	c.Profundidades = [4]int{0, 2, 2, 2}
	c.Entradas = []int{0, 5}

	gen, err := construirTablas(c)
	require.NoError(t, err)

	s := gen.Estadisticas.Segmentos[1]
	assert.Equal(t, 4, s.Hojas)
	assert.Equal(t, 2, s.RaicesUtilizadas)
	assert.Equal(t, 1, s.TablasAsignadas, "solo la entrada 5 del nivel superior necesita PTP")

	// Las dos primeras hojas viven en la raíz de nivel 0 (página b1 = 0)
	assert.Equal(t, 1, gen.Hojas[0].Niveles)
	assert.Equal(t, uint64(0x2000), gen.Hojas[0].DireccionPTE)
	assert.Equal(t, 1, gen.Hojas[1].Niveles)
	assert.Equal(t, 2, gen.Hojas[2].Niveles)
}

func TestConstruirTablas_ProfundidadCuatroConIndiceMaximo(t *testing.T) {
	c := configEscenarioB()
	c.Profundidades = [4]int{4, 4, 4, 4}
	c.Entradas = []int{1023}

	gen, err := construirTablas(c)
	require.NoError(t, err)
	require.Len(t, gen.Hojas, 1)

	h := gen.Hojas[0]
	assert.Equal(t, 4, h.Niveles)
	assert.Equal(t, uint64(1023)*(1<<13)*(1+1<<10+1<<20+1<<30), h.DireccionVirtual)
	assert.Less(t, h.DireccionVirtual, uint64(1)<<BitsSegmento)

	// Tres PTPs y ningún nivel extra
	assert.Equal(t, 3, gen.Estadisticas.Segmentos[0].TablasAsignadas)
	fisica, niveles := recorrerImagen(t, gen, h.DireccionVirtual)
	assert.Equal(t, 4, niveles)
	assert.Equal(t, h.DireccionFisica(), fisica)
}

func TestConstruirTablas_Determinista(t *testing.T) {
	a, err := construirTablas(configEscenarioB())
	require.NoError(t, err)
	b, err := construirTablas(configEscenarioB())
	require.NoError(t, err)

	assert.Equal(t, a.Imagen.Escrituras(), b.Imagen.Escrituras())
	assert.Equal(t, a.Hojas, b.Hojas)
	for _, pagina := range a.Imagen.Paginas() {
		assert.Equal(t, a.Imagen.Volcar(pagina), b.Imagen.Volcar(pagina))
	}
}

func TestConstruirTablas_MarcadorPisadoPorSegmentoSiguiente(t *testing.T) {
	c := configEscenarioB()
	c.Profundidades = [4]int{0, 1, 1, 1}
	c.Entradas = []int{0, 3}

	gen, err := construirTablas(c)
	require.NoError(t, err)
	require.Len(t, gen.Hojas, 2)

	// El segmento 1 usa la misma página raíz y su entrada 0 cae sobre el marcador del 0
	valor, ok := gen.Imagen.Leer(0x2000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x6027), valor)
	assert.Equal(t, uint64(0x2000), gen.Hojas[0].DireccionPTE)
	assert.Equal(t, 4, gen.Imagen.Len())

	s := gen.Estadisticas.Segmentos
	assert.True(t, s[0].MarcadorReemplazado)
	assert.False(t, s[2].MarcadorReemplazado)
	assert.False(t, s[3].MarcadorReemplazado)
	assert.Equal(t, 2, s[1].Hojas)

	// Los marcadores de los segmentos 2 y 3 quedan intactos en la página b4
	for _, dir := range []uint64{0x4010, 0x4018} {
		v, ok := gen.Imagen.Leer(dir)
		require.True(t, ok, "marcador %#x", dir)
		assert.Zero(t, v)
	}
}

func TestConstruirNivel_TamanioMapaDesbordado(t *testing.T) {
	c := configEscenarioB()
	ctx := &contextoConstruccion{config: &c, tamPagina: 1 << 48}

	err := ctx.construirNivel(0, 0x2000, 2, 3, 0, false)
	require.ErrorIs(t, err, ErrDesbordeDireccion)
}
