package main

import (
	"fmt"
	"os"

	"github.com/escape-os/gimmix-testgen/utils"
)

func main() {
	// Verificar argumentos
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Uso: %s <archivo_configuracion>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s configs/paginacion-4niveles.json\n", os.Args[0])
		os.Exit(1)
	}

	// Inicializar logger ANTES de usarlo
	utils.InicializarLogger("INFO", "Generador")

	if err := ejecutar(os.Args[1]); err != nil {
		utils.ErrorLog.Error("Generación abortada", "error", err)
		os.Exit(1)
	}
}

// ejecutar corre una generación completa a partir del archivo de configuración
func ejecutar(rutaConfig string) error {
	// Verificar que el archivo existe
	if _, err := os.Stat(rutaConfig); os.IsNotExist(err) {
		return fmt.Errorf("el archivo de configuración no existe: %s", rutaConfig)
	}

	config, err := utils.CargarConfiguracion[GeneradorConfig](rutaConfig)
	if err != nil {
		return err
	}

	// Actualizar logger con configuración del archivo
	utils.InicializarLogger(config.LogLevel, "Generador")
	utils.InfoLog.Info("Configuración cargada", "nivel_log", config.LogLevel, "config_path", rutaConfig)

	if config.NombrePrueba == "" {
		config.NombrePrueba = "paginacion"
	}
	if config.DirectorioSalida == "" {
		config.DirectorioSalida = "."
	}

	gen, err := construirTablas(*config)
	if err != nil {
		return err
	}

	programa, oraculo, err := generarArtefactos(gen)
	if err != nil {
		return err
	}

	if err := escribirArtefactos(config.DirectorioSalida, config.NombrePrueba, programa, oraculo, gen.Imagen); err != nil {
		return err
	}

	utils.InfoLog.Info("Generación completada",
		"rv", utils.OctaMMIX(gen.RV),
		"hojas", len(gen.Hojas),
		"registros", oraculo.Registros())
	return nil
}
