package main

import "fmt"

const (
	desplazamientoBordes = 60
	desplazamientoS      = 40
	mascaraRaiz          = 0xFFFFFFE000
	mascaraN             = 0x3FF
	mascaraF             = 0x7
)

// ValorRV es rV desempaquetado, tal como lo ve la MMU
type ValorRV struct {
	Bordes   [CantidadSegmentos + 1]int // b[0] = 0
	S        int
	N        int
	Raiz     uint64
	F        int
	Invalido bool
}

// codificarRV empaqueta bordes, exponente de página, raíz y espacio de direcciones en rV.
// La función f queda en 0 (traducción por hardware).
func codificarRV(bordes [CantidadSegmentos]int, s int, raiz uint64, n int) (uint64, error) {
	var rv uint64
	for i, b := range bordes {
		if b < 0 || b > MaxBorde {
			return 0, fmt.Errorf("%w: borde b%d=%d no entra en 4 bits", ErrConfiguracion, i+1, b)
		}
		rv |= uint64(b) << uint(desplazamientoBordes-4*i)
	}
	if s < MinExponentePagina || s > MaxExponentePagina {
		return 0, fmt.Errorf("%w: exponente de página %d inválido para rV", ErrConfiguracion, s)
	}
	if raiz&^uint64(mascaraRaiz) != 0 {
		return 0, fmt.Errorf("%w: raíz %#x desalineada o fuera de los bits 13-39", ErrConfiguracion, raiz)
	}
	if raiz&(uint64(1)<<uint(s)-1) != 0 {
		return 0, fmt.Errorf("%w: raíz %#x no alineada a 2^%d", ErrConfiguracion, raiz, s)
	}
	if n < 0 || n > mascaraN {
		return 0, fmt.Errorf("%w: espacio de direcciones %d no entra en 10 bits", ErrConfiguracion, n)
	}
	rv |= uint64(s) << desplazamientoS
	rv |= raiz
	rv |= uint64(n) << desplazamiento
	return rv, nil
}

// decodificarRV es la inversa de codificarRV
func decodificarRV(rv uint64) ValorRV {
	var v ValorRV
	for i := 0; i < CantidadSegmentos; i++ {
		v.Bordes[i+1] = int(rv>>uint(desplazamientoBordes-4*i)) & 0xF
	}
	v.S = int(rv>>desplazamientoS) & 0xFF
	v.N = int(rv>>desplazamiento) & mascaraN
	v.Raiz = rv & mascaraRaiz
	v.F = int(rv & mascaraF)
	v.Invalido = v.S < MinExponentePagina || v.S > MaxExponentePagina || v.F > 1
	return v
}

// validarRV decodifica rV y lo rechaza si la MMU lo consideraría inválido
func validarRV(rv uint64) (ValorRV, error) {
	v := decodificarRV(rv)
	if v.Invalido {
		return v, fmt.Errorf("%w: rV %#016x inválido para la MMU (s=%d, f=%d)", ErrConfiguracion, rv, v.S, v.F)
	}
	return v, nil
}

// PaginaRaiz devuelve la dirección de la tabla raíz j del segmento (b[i] + j)
func (v ValorRV) PaginaRaiz(segmento, j int) uint64 {
	return v.Raiz + uint64(v.Bordes[segmento]+j)*TamanioTabla
}
