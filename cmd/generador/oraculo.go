package main

import (
	"fmt"
	"strings"

	"github.com/escape-os/gimmix-testgen/utils"
)

const (
	registrosBase      = CantidadSegmentos // $0..$3 guardan las bases de segmento
	primerRegistroTemp = 250               // $250..$253 son temporales del emisor
	MaxHojas           = primerRegistroTemp - registrosBase
)

type valorEsperado struct {
	registro int
	valor    uint64
}

// Oraculo lleva el cursor de registros y el tag inicial, y acumula los valores
// esperados en el mismo orden en que el emisor asigna registros
type Oraculo struct {
	siguienteRegistro int
	tagInicial        uint64
	hojas             int
	valores           []valorEsperado
}

func nuevoOraculo(tagInicial uint64) *Oraculo {
	return &Oraculo{tagInicial: tagInicial}
}

// reservar asigna el próximo registro a un valor fijo (registros de base)
func (o *Oraculo) reservar(valor uint64) int {
	registro := o.siguienteRegistro
	o.valores = append(o.valores, valorEsperado{registro: registro, valor: valor})
	o.siguienteRegistro++
	return registro
}

// registrarHoja asigna el próximo registro a la hoja; los tags deben llegar contiguos
func (o *Oraculo) registrarHoja(h RegistroHoja) (int, error) {
	esperado := o.tagInicial + uint64(o.hojas)
	if h.Tag != esperado {
		return 0, fmt.Errorf("%w: tag %s, se esperaba %s", ErrOrdenHojas,
			utils.HexMMIX(h.Tag), utils.HexMMIX(esperado))
	}
	if o.siguienteRegistro >= primerRegistroTemp {
		return 0, fmt.Errorf("%w: no quedan registros de resultado para la hoja %s",
			ErrConfiguracion, utils.HexMMIX(h.Tag))
	}
	o.hojas++
	return o.reservar(h.Tag), nil
}

// Registros devuelve la cantidad de registros enumerados
func (o *Oraculo) Registros() int {
	return len(o.valores)
}

// Valor devuelve el valor esperado del registro, si fue asignado
func (o *Oraculo) Valor(registro int) (uint64, bool) {
	for _, v := range o.valores {
		if v.registro == registro {
			return v.valor, true
		}
	}
	return 0, false
}

// String serializa el rango de registros y una línea por registro
func (o *Oraculo) String() string {
	var sb strings.Builder
	if len(o.valores) == 0 {
		return ""
	}
	fmt.Fprintf(&sb, "$%d..$%d\n", o.valores[0].registro, o.valores[len(o.valores)-1].registro)
	for _, v := range o.valores {
		fmt.Fprintf(&sb, "$%d: %s\n", v.registro, utils.Octa16(v.valor))
	}
	return sb.String()
}
