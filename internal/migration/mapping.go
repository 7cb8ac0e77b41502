// Package migration contiene el core de traducción y sincronización del
// bridge: mapeo de roles/grupos, traducción de usuarios legacy a identidades
// locales, migración one-time de credenciales y la política de
// re-sincronización por login.
package migration

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadMapping indica un par "legacy:local" malformado en la configuración.
// Se rechaza eagerly al cargar, nunca en el momento de uso.
var ErrBadMapping = errors.New("malformed mapping pair")

// Mapping es una tabla de conversión legacy→local para roles o grupos.
// Read-only después de construida; segura para lecturas concurrentes.
//
// Semántica de Resolve:
//   - key blank: nada (se descarta en silencio)
//   - key presente con valor blank: supresión explícita, nada
//   - key presente con valor: el valor mapeado
//   - key ausente: pass-through del nombre legacy solo si AllowUnmapped
type Mapping struct {
	table map[string]string

	// AllowUnmapped habilita el pass-through de identificadores sin entrada
	// en la tabla.
	AllowUnmapped bool
}

// ParseMapping construye una tabla desde pares "legacy:local".
// Un par sin ':' o con key vacía es error de configuración.
// El valor local puede ser vacío ("legacy:"), que significa supresión.
func ParseMapping(pairs []string, allowUnmapped bool) (Mapping, error) {
	table := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, ":")
		if !found {
			return Mapping{}, fmt.Errorf("%w: %q (se espera legacy:local)", ErrBadMapping, pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return Mapping{}, fmt.Errorf("%w: %q (key vacía)", ErrBadMapping, pair)
		}
		table[key] = strings.TrimSpace(value)
	}
	return Mapping{table: table, AllowUnmapped: allowUnmapped}, nil
}

// ParseMappingString es ParseMapping sobre una lista delimitada por comas,
// para configuración vía variable de entorno.
func ParseMappingString(s string, allowUnmapped bool) (Mapping, error) {
	if strings.TrimSpace(s) == "" {
		return Mapping{AllowUnmapped: allowUnmapped}, nil
	}
	return ParseMapping(strings.Split(s, ","), allowUnmapped)
}

// Resolve mapea un identificador legacy a cero-o-un identificador local.
func (m Mapping) Resolve(legacyID string) (string, bool) {
	legacyID = strings.TrimSpace(legacyID)
	if legacyID == "" {
		return "", false
	}
	if local, ok := m.table[legacyID]; ok {
		if local == "" {
			return "", false // supresión explícita
		}
		return local, true
	}
	if m.AllowUnmapped {
		return legacyID, true
	}
	return "", false
}

// Len retorna la cantidad de entradas de la tabla.
func (m Mapping) Len() int { return len(m.table) }

// IgnorePatterns es una lista de patrones con wildcard '*' que protegen
// roles/grupos locales de las operaciones de sync: un nombre que matchea no
// se importa ni se remueve durante la reconciliación.
type IgnorePatterns []string

// DefaultIgnoredRoles protege los roles internos típicos del host.
var DefaultIgnoredRoles = IgnorePatterns{
	"default-roles-*",
	"realm-management",
	"offline_access",
	"uma_authorization",
}

// Match verifica si el nombre matchea algún patrón.
// Nombres blank nunca matchean.
func (p IgnorePatterns) Match(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for _, pattern := range p {
		if wildcardMatch(strings.TrimSpace(pattern), name) {
			return true
		}
	}
	return false
}

// wildcardMatch matchea pattern contra value, donde '*' cubre cualquier
// secuencia (incluida la vacía).
func wildcardMatch(pattern, value string) bool {
	if pattern == "" {
		return false
	}
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == value
	}

	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]

	last := parts[len(parts)-1]
	for _, part := range parts[1 : len(parts)-1] {
		if part == "" {
			continue
		}
		idx := strings.Index(value, part)
		if idx < 0 {
			return false
		}
		value = value[idx+len(part):]
	}

	return strings.HasSuffix(value, last)
}
