package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CargarConfiguracion decodifica el archivo de configuración en el tipo genérico T.
// Los archivos .yaml/.yml se leen con yaml, el resto como JSON.
func CargarConfiguracion[T any](ruta string) (*T, error) {
	InfoLog.Info("Cargando configuración", "ruta", ruta)

	// Obtener ruta absoluta
	absPath, err := filepath.Abs(ruta)
	if err != nil {
		ErrorLog.Error("Error obteniendo ruta absoluta", "error", err, "ruta", ruta)
		return nil, fmt.Errorf("ruta de configuración inválida %q: %w", ruta, err)
	}

	// Abrir archivo
	file, err := os.Open(absPath)
	if err != nil {
		ErrorLog.Error("Error abriendo archivo de configuración", "error", err, "archivo", absPath)
		return nil, fmt.Errorf("no se pudo abrir la configuración: %w", err)
	}
	defer file.Close()

	var config T
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		err = decoder.Decode(&config)
	default:
		decoder := json.NewDecoder(file)
		decoder.DisallowUnknownFields()
		err = decoder.Decode(&config)
	}
	if err != nil {
		ErrorLog.Error("Error decodificando configuración", "error", err, "archivo", absPath)
		return nil, fmt.Errorf("error decodificando %s: %w", absPath, err)
	}

	InfoLog.Info("Configuración cargada correctamente", "archivo", absPath)
	return &config, nil
}
