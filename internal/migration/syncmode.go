package migration

import "strings"

// SyncMode gobierna cuándo se re-sincroniza una identidad ya migrada contra
// el sistema legacy. Se elige una vez por configuración; no hay transiciones
// en runtime (recrear el bridge para cambiarlo).
type SyncMode int

const (
	// SyncFirstLogin traduce y crea solo si no existe registro local;
	// logins posteriores nunca re-traducen.
	SyncFirstLogin SyncMode = iota

	// SyncEveryLogin traduce en cada login, removiendo roles/grupos que ya
	// no están del lado legacy (reconciliación completa).
	SyncEveryLogin

	// SyncEveryLoginOnlyAdd traduce en cada login pero solo agrega; nunca
	// remueve lo ausente en el snapshot legacy.
	SyncEveryLoginOnlyAdd

	// NoSync nunca invoca traducción desde el path de login.
	NoSync
)

func (m SyncMode) String() string {
	switch m {
	case SyncFirstLogin:
		return "SYNC_FIRST_LOGIN"
	case SyncEveryLogin:
		return "SYNC_EVERY_LOGIN"
	case SyncEveryLoginOnlyAdd:
		return "SYNC_EVERY_LOGIN_ONLY_ADD"
	case NoSync:
		return "NO_SYNC"
	default:
		return "UNKNOWN"
	}
}

// ImportOnFirstLogin indica si el primer login debe importar roles/grupos.
func (m SyncMode) ImportOnFirstLogin() bool { return m != NoSync }

// SyncOnLogin indica si cada login debe re-sincronizar.
func (m SyncMode) SyncOnLogin() bool {
	return m == SyncEveryLogin || m == SyncEveryLoginOnlyAdd
}

// RemoveMissingOnLogin indica si la sincronización remueve lo ausente
// en el snapshot legacy.
func (m SyncMode) RemoveMissingOnLogin() bool { return m == SyncEveryLogin }

// SyncModeFromConfig parsea el valor de configuración.
// Acepta los nombres del enum (case-insensitive) y los strings booleanos
// legacy "true"/"false", mapeados a SYNC_EVERY_LOGIN/SYNC_FIRST_LOGIN por
// compatibilidad. Un valor no reconocido cae al default del caller, nunca a
// un default escondido.
func SyncModeFromConfig(value string, def SyncMode) SyncMode {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}

	if strings.EqualFold(value, "true") {
		return SyncEveryLogin
	}
	if strings.EqualFold(value, "false") {
		return SyncFirstLogin
	}

	switch strings.ToUpper(value) {
	case "SYNC_FIRST_LOGIN":
		return SyncFirstLogin
	case "SYNC_EVERY_LOGIN":
		return SyncEveryLogin
	case "SYNC_EVERY_LOGIN_ONLY_ADD":
		return SyncEveryLoginOnlyAdd
	case "NO_SYNC":
		return NoSync
	default:
		return def
	}
}
