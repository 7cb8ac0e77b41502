// Package repository define los contratos que el bridge consume del host.
//
// Estas interfaces representan las capacidades del identity server anfitrión,
// independientes del almacenamiento subyacente (PostgreSQL, memoria, etc.).
//
// Las implementaciones concretas viven en internal/store/.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - "no existe" se señala con ErrNotFound, nunca con nil silencioso
//   - Errores de dominio están en errors.go
package repository
