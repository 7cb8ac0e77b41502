package migration

import (
	"errors"
	"fmt"
)

// ConsistencyError indica que el username local y el legacy difieren: un bug
// del caller (ej: lookup por email que resuelve a otro username canónico).
// Es fatal para la operación en curso, nunca se corrige en silencio ni se
// reintenta.
type ConsistencyError struct {
	Local  string
	Legacy string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("local and legacy users differ: [%s != %s]", e.Local, e.Legacy)
}

// IsConsistency verifica si el error es (o envuelve) un *ConsistencyError.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
