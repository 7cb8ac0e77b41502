// Package cache provee una abstracción mínima de cache con backends
// intercambiables: memoria (in-process) y Redis (distribuido).
//
// El bridge lo usa para cachear lookups contra el sistema legacy, incluidas
// entradas negativas (usuario inexistente).
package cache

import "time"

// Cache es la interfaz mínima de cache byte-oriented.
type Cache interface {
	// Get obtiene un valor. El segundo retorno indica presencia.
	Get(k string) ([]byte, bool)

	// Set guarda un valor con TTL. ttl 0 usa el default del backend.
	Set(k string, v []byte, ttl time.Duration)

	// Delete elimina una key.
	Delete(k string)
}
