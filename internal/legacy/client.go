// Package legacy implementa el contrato contra el sistema de autenticación
// legacy: lookup por username/email y validación de password.
//
// "No encontrado" se señala con repository.ErrNotFound y es control de flujo
// normal. Fallas de red/timeout/body indecodificable se envuelven en
// *TransportError: el caller las trata como "sistema legacy no disponible" y
// aborta antes de cualquier mutación local.
package legacy

import (
	"context"
	"errors"
	"fmt"
)

// Client es el contrato de consulta contra el sistema legacy.
// Las tres operaciones son síncronas, sin reintentos internos: la política de
// retry es del transporte, no de este core.
type Client interface {
	// FindByUsername busca un usuario legacy por username.
	// Retorna repository.ErrNotFound si no existe.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByEmail busca un usuario legacy por email.
	// Retorna repository.ErrNotFound si no existe.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ValidatePassword verifica la password contra el sistema legacy.
	// Es libre de efectos: no muta nada ni local ni remoto.
	ValidatePassword(ctx context.Context, usernameOrID, password string) (bool, error)
}

// TransportError envuelve una falla de I/O, timeout o respuesta indecodificable
// hablando con el sistema legacy.
type TransportError struct {
	Op  string // operación que falló: "find", "validate"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("legacy %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport verifica si el error es (o envuelve) un *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
