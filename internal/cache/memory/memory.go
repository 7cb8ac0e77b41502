// Package memory adapta go-cache al contrato cache.Cache del bridge.
// Backend por defecto para despliegues de una sola instancia; para compartir
// el cache de lookups entre réplicas se usa el backend redis.
package memory

import (
	"time"

	"github.com/dropDatabas3/legacybridge/internal/cache"
	gocache "github.com/patrickmn/go-cache"
)

// janitorInterval es la frecuencia de purga de entradas expiradas.
const janitorInterval = time.Minute

type Store struct {
	c *gocache.Cache
}

// New crea el cache in-process. defaultTTL aplica a los Set con ttl 0.
func New(defaultTTL time.Duration) cache.Cache {
	return &Store{c: gocache.New(defaultTTL, janitorInterval)}
}

func (s *Store) Get(k string) ([]byte, bool) {
	v, ok := s.c.Get(k)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	if !ok {
		// Solo este paquete escribe acá y siempre guarda []byte; una entrada
		// de otro tipo se trata como miss.
		return nil, false
	}
	return b, true
}

func (s *Store) Set(k string, v []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.c.Set(k, v, ttl)
}

func (s *Store) Delete(k string) {
	s.c.Delete(k)
}
