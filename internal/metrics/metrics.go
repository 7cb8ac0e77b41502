package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas Prometheus del bridge. Viven en un paquete propio para evitar
// ciclos de import entre legacy (transporte) y los paquetes HTTP.

var (
	LegacyLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legacybridge_legacy_lookups_total",
		Help: "Lookups contra el sistema legacy por resultado",
	}, []string{"outcome"}) // found | not_found | error

	PasswordValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "legacybridge_password_validations_total",
		Help: "Validaciones de password contra el sistema legacy por resultado",
	}, []string{"result"}) // valid | invalid | error

	IdentitiesMigrated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "legacybridge_identities_migrated_total",
		Help: "Identidades locales creadas a partir de usuarios legacy",
	})

	FederationLinksSevered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "legacybridge_federation_links_severed_total",
		Help: "Links de federación cortados tras migrar la credencial",
	})

	LookupCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "legacybridge_lookup_cache_hits_total",
		Help: "Hits del cache de lookups legacy",
	})
)

// Register registra las métricas del bridge en el registry dado (default si
// es nil). Tolera registros duplicados para que los tests puedan re-registrar.
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LegacyLookups,
		PasswordValidations,
		IdentitiesMigrated,
		FederationLinksSevered,
		LookupCacheHits,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
