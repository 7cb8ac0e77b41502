package repository

import "context"

// TOTPCredential es una configuración de segundo factor importada del sistema
// legacy y almacenada tal cual en el host.
type TOTPCredential struct {
	Secret    string
	Name      string
	Digits    int
	Period    int
	Algorithm string
	Encoding  string
}

// CredentialReader expone la lectura de la credencial local ya migrada.
// Lo usa la superficie de login del host demo una vez que el federation link
// fue cortado; el bridge en sí nunca lee credenciales.
type CredentialReader interface {
	// PasswordHash retorna el PHC almacenado. ErrNotFound si no hay
	// credencial local para esa identidad.
	PasswordHash(ctx context.Context, identityID string) (string, error)
}

// CredentialStore es la primitiva de escritura de credenciales del host.
// El bridge escribe aquí la credencial migrada tras una validación exitosa
// contra el sistema legacy.
type CredentialStore interface {
	// WritePassword guarda el hash PHC de la password verificada.
	WritePassword(ctx context.Context, identityID, phc string) error

	// WriteTOTP guarda una credencial TOTP importada.
	WriteTOTP(ctx context.Context, identityID string, totp TOTPCredential) error
}
