package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/escape-os/gimmix-testgen/utils"
)

// escribirArtefactos deja <nombre>.mms (programa), <nombre>.res (oráculo) e
// <nombre>.img (tablas volcadas) en el directorio
func escribirArtefactos(directorio, nombre, programa string, oraculo *Oraculo, imagen *Imagen) error {
	utils.InfoLog.Info("Escribiendo artefactos", "directorio", directorio, "nombre", nombre)

	// Verificar que el directorio de salida existe
	if err := os.MkdirAll(directorio, 0755); err != nil {
		utils.ErrorLog.Error("Error creando directorio de salida", "error", err)
		return fmt.Errorf("error al crear directorio de salida: %w", err)
	}

	archivos := []struct {
		extension string
		contenido []byte
	}{
		{".mms", []byte(programa)},
		{".res", []byte(oraculo.String())},
		{".img", imagen.VolcarPaginas()},
	}

	for _, a := range archivos {
		ruta := filepath.Join(directorio, nombre+a.extension)
		if err := os.WriteFile(ruta, a.contenido, 0644); err != nil {
			utils.ErrorLog.Error("Error escribiendo artefacto", "archivo", ruta, "error", err)
			return fmt.Errorf("error al escribir %s: %w", ruta, err)
		}
		utils.InfoLog.Info("Artefacto escrito", "archivo", ruta, "bytes", len(a.contenido))
	}

	return nil
}
