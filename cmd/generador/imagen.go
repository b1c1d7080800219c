package main

import (
	"encoding/binary"
	"slices"
)

// EscrituraTabla es un octa colocado en memoria física
type EscrituraTabla struct {
	Direccion uint64
	Valor     uint64
}

// Imagen acumula las escrituras de tablas. Una segunda escritura sobre la misma
// dirección reemplaza el valor conservando la posición original.
type Imagen struct {
	escrituras []EscrituraTabla
	indice     map[uint64]int
}

func nuevaImagen() *Imagen {
	return &Imagen{indice: make(map[uint64]int)}
}

// Escribir coloca valor en dir. Devuelve true si reemplazó una escritura anterior.
func (im *Imagen) Escribir(dir, valor uint64) bool {
	if i, existe := im.indice[dir]; existe {
		im.escrituras[i].Valor = valor
		return true
	}
	im.indice[dir] = len(im.escrituras)
	im.escrituras = append(im.escrituras, EscrituraTabla{Direccion: dir, Valor: valor})
	return false
}

// Leer devuelve el valor escrito en dir, si lo hay
func (im *Imagen) Leer(dir uint64) (uint64, bool) {
	i, existe := im.indice[dir]
	if !existe {
		return 0, false
	}
	return im.escrituras[i].Valor, true
}

// Len devuelve la cantidad de direcciones distintas escritas
func (im *Imagen) Len() int {
	return len(im.escrituras)
}

// Escrituras devuelve una copia ordenada por dirección
func (im *Imagen) Escrituras() []EscrituraTabla {
	ordenadas := slices.Clone(im.escrituras)
	slices.SortFunc(ordenadas, func(a, b EscrituraTabla) int {
		switch {
		case a.Direccion < b.Direccion:
			return -1
		case a.Direccion > b.Direccion:
			return 1
		}
		return 0
	})
	return ordenadas
}

// Paginas devuelve las tablas tocadas por alguna escritura, ordenadas
func (im *Imagen) Paginas() []uint64 {
	vistas := make(map[uint64]bool)
	var paginas []uint64
	for _, e := range im.escrituras {
		pagina := e.Direccion &^ (TamanioTabla - 1)
		if !vistas[pagina] {
			vistas[pagina] = true
			paginas = append(paginas, pagina)
		}
	}
	slices.Sort(paginas)
	return paginas
}

// VolcarPaginas concatena, por cada tabla tocada, su dirección física (8 bytes) y
// su contenido completo
func (im *Imagen) VolcarPaginas() []byte {
	paginas := im.Paginas()
	datos := make([]byte, 0, len(paginas)*(TamanioEntrada+TamanioTabla))
	for _, pagina := range paginas {
		datos = binary.BigEndian.AppendUint64(datos, pagina)
		datos = append(datos, im.Volcar(pagina)...)
	}
	return datos
}

// Volcar serializa una tabla completa en big-endian, como la lee MMIX
func (im *Imagen) Volcar(pagina uint64) []byte {
	datos := make([]byte, TamanioTabla)
	for i := 0; i < EntradasPorTabla; i++ {
		if valor, ok := im.Leer(pagina + uint64(i)*TamanioEntrada); ok {
			binary.BigEndian.PutUint64(datos[i*TamanioEntrada:], valor)
		}
	}
	return datos
}
