package main

import (
	"fmt"
	"math/bits"
)

const (
	CantidadSegmentos   = 4
	EntradasPorTabla    = 1024
	TamanioEntrada      = 8
	TamanioTabla        = EntradasPorTabla * TamanioEntrada // 8 KiB, también la alineación de la raíz
	MaxProfundidad      = 4
	MaxBorde            = 15 // cada borde ocupa un nibble de rV
	MinExponentePagina  = 13
	MaxExponentePagina  = 48
	MaxEspacioDirecc    = 1<<10 - 1
	BitsSegmento        = 61
	BitsDireccionFisica = 48
	BitsRaiz            = 40

	tagInicialPorDefecto = 0x1000
)

// GeneradorConfig representa la configuración de una corrida del generador
type GeneradorConfig struct {
	Profundidades      [CantidadSegmentos]int `json:"PROFUNDIDADES" yaml:"PROFUNDIDADES"`             // Bordes acumulados b1..b4
	Entradas           []int                  `json:"ENTRADAS" yaml:"ENTRADAS"`                       // Índices reutilizados en cada nivel
	ExponentePagina    int                    `json:"EXPONENTE_PAGINA" yaml:"EXPONENTE_PAGINA"`       // log2 del tamaño de página
	DireccionRaiz      uint64                 `json:"DIRECCION_RAIZ" yaml:"DIRECCION_RAIZ"`           // Dirección física de la raíz
	EspacioDirecciones int                    `json:"ESPACIO_DIRECCIONES" yaml:"ESPACIO_DIRECCIONES"` // Tag n del espacio de direcciones
	TagInicial         uint64                 `json:"TAG_INICIAL" yaml:"TAG_INICIAL"`                 // 0 = 0x1000
	LogLevel           string                 `json:"LOG_LEVEL" yaml:"LOG_LEVEL"`
	DirectorioSalida   string                 `json:"DIRECTORIO_SALIDA" yaml:"DIRECTORIO_SALIDA"`
	NombrePrueba       string                 `json:"NOMBRE_PRUEBA" yaml:"NOMBRE_PRUEBA"`
}

// TamanioPagina devuelve el tamaño de página en bytes
func (c *GeneradorConfig) TamanioPagina() uint64 {
	return 1 << uint(c.ExponentePagina)
}

// Profundidad devuelve la cantidad de niveles propia del segmento
func (c *GeneradorConfig) Profundidad(segmento int) int {
	return c.Profundidades[segmento] - c.BordeInicial(segmento)
}

// BordeInicial devuelve b[i], la primera página raíz del segmento
func (c *GeneradorConfig) BordeInicial(segmento int) int {
	if segmento == 0 {
		return 0
	}
	return c.Profundidades[segmento-1]
}

// Tag0 devuelve el primer tag a escribir
func (c *GeneradorConfig) Tag0() uint64 {
	if c.TagInicial == 0 {
		return tagInicialPorDefecto
	}
	return c.TagInicial
}

// HojasEsperadas calcula Σ |entradas|^profundidad sobre los segmentos con profundidad > 0
func (c *GeneradorConfig) HojasEsperadas() int {
	total := 0
	for seg := 0; seg < CantidadSegmentos; seg++ {
		total += c.hojasSegmento(seg)
	}
	return total
}

func (c *GeneradorConfig) hojasSegmento(segmento int) int {
	d := c.Profundidad(segmento)
	if d == 0 {
		return 0
	}
	hojas := 1
	for i := 0; i < d; i++ {
		hojas *= len(c.Entradas)
	}
	return hojas
}

// validar rechaza de forma anticipada toda configuración fuera de contrato
func (c *GeneradorConfig) validar() error {
	anterior := 0
	for seg, borde := range c.Profundidades {
		if borde < anterior {
			return fmt.Errorf("%w: los bordes de segmento deben ser no decrecientes (b%d=%d < %d)",
				ErrConfiguracion, seg+1, borde, anterior)
		}
		if borde > MaxBorde {
			return fmt.Errorf("%w: el borde b%d=%d no entra en 4 bits", ErrConfiguracion, seg+1, borde)
		}
		if d := borde - anterior; d > MaxProfundidad {
			return fmt.Errorf("%w: profundidad del segmento %d es %d (máximo %d)",
				ErrConfiguracion, seg, d, MaxProfundidad)
		}
		anterior = borde
	}

	if len(c.Entradas) == 0 {
		return fmt.Errorf("%w: la lista de entradas está vacía", ErrConfiguracion)
	}
	vistas := make(map[int]bool, len(c.Entradas))
	for _, e := range c.Entradas {
		if e < 0 || e >= EntradasPorTabla {
			return fmt.Errorf("%w: entrada %d fuera de [0,%d]", ErrConfiguracion, e, EntradasPorTabla-1)
		}
		if vistas[e] {
			return fmt.Errorf("%w: entrada %d repetida", ErrConfiguracion, e)
		}
		vistas[e] = true
	}

	if c.ExponentePagina < MinExponentePagina || c.ExponentePagina > MaxExponentePagina {
		return fmt.Errorf("%w: exponente de página %d fuera de [%d,%d]",
			ErrConfiguracion, c.ExponentePagina, MinExponentePagina, MaxExponentePagina)
	}
	if c.EspacioDirecciones < 0 || c.EspacioDirecciones > MaxEspacioDirecc {
		return fmt.Errorf("%w: espacio de direcciones %d fuera de [0,%d]",
			ErrConfiguracion, c.EspacioDirecciones, MaxEspacioDirecc)
	}
	if c.DireccionRaiz%c.TamanioPagina() != 0 {
		return fmt.Errorf("%w: raíz %#x no alineada a la página de %d bytes",
			ErrConfiguracion, c.DireccionRaiz, c.TamanioPagina())
	}
	if c.DireccionRaiz >= 1<<BitsRaiz {
		return fmt.Errorf("%w: raíz %#x no entra en los bits 13-39 de rV", ErrDesbordeDireccion, c.DireccionRaiz)
	}

	if hojas := c.HojasEsperadas(); hojas > MaxHojas {
		return fmt.Errorf("%w: %d hojas exceden los %d registros de resultado disponibles",
			ErrConfiguracion, hojas, MaxHojas)
	}

	for seg := 0; seg < CantidadSegmentos; seg++ {
		if err := c.validarRangoSegmento(seg); err != nil {
			return err
		}
	}
	return nil
}

// validarRangoSegmento comprueba que la mayor dirección virtual del segmento quede por
// debajo de 2^61: Σ max(entradas) × página × 1024^L + página
func (c *GeneradorConfig) validarRangoSegmento(segmento int) error {
	d := c.Profundidad(segmento)
	if d == 0 {
		return nil
	}
	maxEntrada := uint64(0)
	for _, e := range c.Entradas {
		maxEntrada = max(maxEntrada, uint64(e))
	}

	total := c.TamanioPagina()
	for nivel := 0; nivel < d; nivel++ {
		mapSize, ok := tamanioMapa(c.TamanioPagina(), nivel)
		if !ok {
			return fmt.Errorf("%w: el nivel %d del segmento %d no entra en 64 bits",
				ErrDesbordeDireccion, nivel, segmento)
		}
		alto, paso := bits.Mul64(maxEntrada, mapSize)
		var acarreo uint64
		total, acarreo = bits.Add64(total, paso, 0)
		if alto != 0 || acarreo != 0 {
			return fmt.Errorf("%w: el nivel %d del segmento %d no entra en 64 bits",
				ErrDesbordeDireccion, nivel, segmento)
		}
	}
	if total > 1<<BitsSegmento {
		return fmt.Errorf("%w: el segmento %d necesita %#x bytes, más que los 2^61 disponibles",
			ErrDesbordeDireccion, segmento, total)
	}
	return nil
}

// tamanioMapa devuelve página × 1024^nivel, o false si no entra en 64 bits
func tamanioMapa(tamPagina uint64, nivel int) (uint64, bool) {
	desplazamiento := 10 * nivel
	if bits.Len64(tamPagina)+desplazamiento > 64 {
		return 0, false
	}
	return tamPagina << uint(desplazamiento), true
}
