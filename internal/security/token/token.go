// Package token emite los access tokens de la superficie de login demo.
// HS256 con secret compartido: suficiente para ejercitar el bridge; la
// emisión real de tokens es del host.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Config struct {
	// Secret para HS256. Requerido.
	Secret string

	// Issuer del claim iss.
	Issuer string

	// TTL del token. Default: 15m.
	TTL time.Duration
}

type Minter struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewMinter(cfg Config) (*Minter, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token: secret requerido")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Minter{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: ttl}, nil
}

// Mint emite un access token para la identidad dada.
func (m *Minter) Mint(identityID, username string, roles []string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)

	claims := jwt.MapClaims{
		"iss":      m.issuer,
		"sub":      identityID,
		"username": username,
		"roles":    roles,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
		"jti":      uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
