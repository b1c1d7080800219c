package main

import (
	"fmt"
	"strings"

	"github.com/escape-os/gimmix-testgen/utils"
)

const (
	bitFisico    = uint64(1) << 63 // acceso directo a memoria física en modo privilegiado
	bloqueSync   = 256             // SYNCD cubre como máximo 256 bytes
	etiquetaRV   = "ValorRV"
	regTag       = primerRegistroTemp
	regDesplaz   = primerRegistroTemp + 1
	regDireccion = primerRegistroTemp + 2
	regContador  = primerRegistroTemp + 3
)

// programaMMIX acumula líneas de MMIXAL: etiqueta, operación, operandos
type programaMMIX struct {
	sb strings.Builder
}

func (p *programaMMIX) instr(etiqueta, op, operandos string) {
	fmt.Fprintf(&p.sb, "%s\t%s\t%s\n", etiqueta, op, operandos)
}

func (p *programaMMIX) comentario(formato string, args ...any) {
	fmt.Fprintf(&p.sb, "\t%% %s\n", fmt.Sprintf(formato, args...))
}

func (p *programaMMIX) linea() {
	p.sb.WriteString("\n")
}

// cargarConstante arma un octa arbitrario en el registro con SETx/ORx
func (p *programaMMIX) cargarConstante(registro int, valor uint64) {
	set := [4]string{"SETH", "SETMH", "SETML", "SETL"}
	or := [4]string{"ORH", "ORMH", "ORML", "ORL"}
	wydes := utils.Wydes(valor)

	primero := true
	for i, w := range wydes {
		if w == 0 && (i < 3 || !primero) {
			continue
		}
		op := or[i]
		if primero {
			op = set[i]
			primero = false
		}
		p.instr("", op, fmt.Sprintf("$%d,%s", registro, utils.HexMMIX(uint64(w))))
	}
}

func (p *programaMMIX) String() string {
	return p.sb.String()
}

// generarArtefactos produce el programa y el oráculo en una sola pasada sobre las
// hojas, asignando a cada una el registro que el oráculo le reserva
func generarArtefactos(gen *Generacion) (string, *Oraculo, error) {
	var p programaMMIX
	oraculo := nuevoOraculo(gen.Config.Tag0())

	emitirEncabezado(&p, gen)
	emitirTablas(&p, gen.Imagen)

	p.linea()
	p.comentario("programa")
	p.instr("", "LOC", utils.OctaMMIX(bitFisico|gen.Disposicion.Programa))
	p.instr(etiquetaRV, "OCTA", utils.OctaMMIX(gen.RV))

	// Registros de base de segmento
	for seg := 0; seg < CantidadSegmentos; seg++ {
		registro := oraculo.reservar(BaseSegmento(seg))
		etiqueta := ""
		if seg == 0 {
			etiqueta = "Main"
		}
		w := utils.Wydes(BaseSegmento(seg))
		p.instr(etiqueta, "SETH", fmt.Sprintf("$%d,%s", registro, utils.HexMMIX(uint64(w[0]))))
	}

	emitirSincronizacion(&p, gen.Imagen.Paginas())

	p.comentario("cargar rV")
	p.instr("", "GETA", fmt.Sprintf("$%d,%s", regDireccion, etiquetaRV))
	p.instr("", "LDOU", fmt.Sprintf("$%d,$%d,0", regDireccion, regDireccion))
	p.instr("", "PUT", fmt.Sprintf("rV,$%d", regDireccion))

	for i, h := range gen.Hojas {
		registro, err := oraculo.registrarHoja(h)
		if err != nil {
			utils.ErrorLog.Error("Error asignando registro", "hoja", i, "error", err)
			return "", nil, err
		}
		emitirHoja(&p, i, h, registro)
	}

	p.linea()
	p.instr("", "TRAP", "0,Halt,0")

	utils.InfoLog.Info("Programa generado", "hojas", len(gen.Hojas), "registros", oraculo.Registros(),
		"tablas_sincronizadas", len(gen.Imagen.Paginas()))
	return p.String(), oraculo, nil
}

func emitirEncabezado(p *programaMMIX, gen *Generacion) {
	c := gen.Config
	p.comentario("estructura de paginación: b1..b4 = %d,%d,%d,%d  s = %d  n = %d",
		c.Profundidades[0], c.Profundidades[1], c.Profundidades[2], c.Profundidades[3],
		c.ExponentePagina, c.EspacioDirecciones)
	p.comentario("entradas = %v  raíz = %s  rV = %s", c.Entradas,
		utils.HexMMIX(c.DireccionRaiz), utils.OctaMMIX(gen.RV))
}

// emitirTablas coloca cada escritura en su dirección física; las direcciones
// consecutivas comparten un único LOC
func emitirTablas(p *programaMMIX, imagen *Imagen) {
	p.linea()
	p.comentario("tablas de páginas")
	siguiente := uint64(0)
	for i, e := range imagen.Escrituras() {
		if i == 0 || e.Direccion != siguiente {
			p.instr("", "LOC", utils.OctaMMIX(bitFisico|e.Direccion))
		}
		p.instr("", "OCTA", utils.OctaMMIX(e.Valor))
		siguiente = e.Direccion + TamanioEntrada
	}
}

// emitirSincronizacion vuelca a memoria cada tabla antes de activar la traducción
func emitirSincronizacion(p *programaMMIX, paginas []uint64) {
	for _, pagina := range paginas {
		p.comentario("sincronizar tabla %s", utils.HexMMIX(pagina))
		p.cargarConstante(regDireccion, bitFisico|pagina)
		p.instr("", "SETL", fmt.Sprintf("$%d,%s", regContador, utils.HexMMIX(TamanioTabla/bloqueSync)))
		p.instr("1H", "SYNCD", fmt.Sprintf("%s,$%d,0", utils.HexMMIX(bloqueSync-1), regDireccion))
		p.instr("", "INCL", fmt.Sprintf("$%d,%s", regDireccion, utils.HexMMIX(bloqueSync)))
		p.instr("", "SUBU", fmt.Sprintf("$%d,$%d,1", regContador, regContador))
		p.instr("", "PBNZ", fmt.Sprintf("$%d,1B", regContador))
	}
}

// emitirHoja escribe el tag a través de la dirección virtual y relee el octa desde
// la dirección física del marco
func emitirHoja(p *programaMMIX, indice int, h RegistroHoja, registro int) {
	p.linea()
	p.comentario("hoja %d: segmento %d, %d niveles, va %s", indice, h.Segmento, h.Niveles,
		utils.OctaMMIX(h.DireccionVirtual))
	p.cargarConstante(regTag, h.Tag)
	p.cargarConstante(regDesplaz, h.DireccionVirtual-BaseSegmento(h.Segmento))
	p.instr("", "STOU", fmt.Sprintf("$%d,$%d,$%d", regTag, h.Segmento, regDesplaz))
	p.cargarConstante(regDireccion, bitFisico|h.DireccionFisica())
	p.instr("", "LDOU", fmt.Sprintf("$%d,$%d,0", registro, regDireccion))
}
