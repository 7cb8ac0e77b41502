package legacy

// User es un usuario tal como lo expone el sistema de autenticación legacy.
// Se construye fresco en cada lookup y se descarta tras la traducción;
// nunca se muta después de decodificar.
type User struct {
	// ID es opcional: vacío significa "el store local asigna identificador".
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	Enabled       bool `json:"enabled"`
	EmailVerified bool `json:"emailVerified"`

	// Attributes mapea nombre de atributo a lista ordenada de valores.
	Attributes map[string][]string `json:"attributes"`

	// Roles y Groups pueden traer entradas null/"" — se toleran y descartan
	// durante el mapeo, nunca son error.
	Roles  []string `json:"roles"`
	Groups []string `json:"groups"`

	RequiredActions []string `json:"requiredActions"`

	TOTPs []TOTP `json:"totps"`

	Organizations []Organization `json:"organizations"`
}

// Organization es una membresía organizacional del sistema legacy.
// El alias identifica la organización; el nombre es display-only.
type Organization struct {
	Name  string `json:"orgName"`
	Alias string `json:"orgAlias"`
}

// TOTP es una configuración de segundo factor del sistema legacy.
type TOTP struct {
	Secret    string `json:"secret"`
	Name      string `json:"name"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	Algorithm string `json:"algorithm"`
	Encoding  string `json:"encoding"`
}
