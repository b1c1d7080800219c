package main

import "errors"

// Taxonomía de errores del generador. Todos son fatales: no hay salida parcial.
var (
	// ErrConfiguracion: profundidad, entrada, espacio de direcciones o raíz fuera de rango
	ErrConfiguracion = errors.New("configuración inválida")

	// ErrDesbordeDireccion: una dirección virtual o física no entra en su rango representable
	ErrDesbordeDireccion = errors.New("desborde de dirección")

	// ErrAsignadorAgotado: un asignador bump superó la región reservada
	ErrAsignadorAgotado = errors.New("asignador agotado")

	// ErrOrdenHojas: el programa y el oráculo recibieron hojas en distinto orden
	ErrOrdenHojas = errors.New("hojas fuera de orden")
)
