package utils

import "fmt"

// HexMMIX formatea un valor como constante hexadecimal de MMIXAL (#2000)
func HexMMIX(valor uint64) string {
	return fmt.Sprintf("#%X", valor)
}

// OctaMMIX formatea un octa completo como constante de MMIXAL (#8000000000002000)
func OctaMMIX(valor uint64) string {
	return fmt.Sprintf("#%016X", valor)
}

// Octa16 formatea un octa con 16 dígitos hexadecimales y sin prefijo
func Octa16(valor uint64) string {
	return fmt.Sprintf("%016X", valor)
}

// Wydes separa un octa en sus cuatro wydes, del más significativo al menos
func Wydes(valor uint64) [4]uint16 {
	return [4]uint16{
		uint16(valor >> 48),
		uint16(valor >> 32),
		uint16(valor >> 16),
		uint16(valor),
	}
}
