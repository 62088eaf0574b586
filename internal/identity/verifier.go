// Package identity verifies the user tokens the Whop app proxy attaches to
// every request.
package identity

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Config struct {
	// PublicKeyPEM verifies ES256 tokens issued by Whop.
	PublicKeyPEM string
	// Secret verifies HS256 tokens, for local development.
	Secret string
	AppID  string
	Issuer string
}

// Claims identify the caller. Subject carries the Whop user id.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

type Verifier struct {
	publicKey *ecdsa.PublicKey
	secret    []byte
	options   []jwt.ParserOption
}

func NewVerifier(cfg Config) (*Verifier, error) {
	v := &Verifier{}
	var methods []string

	if cfg.PublicKeyPEM != "" {
		key, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse token public key: %w", err)
		}
		v.publicKey = key
		methods = append(methods, jwt.SigningMethodES256.Alg())
	}
	if cfg.Secret != "" {
		v.secret = []byte(cfg.Secret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if len(methods) == 0 {
		return nil, errors.New("no token verification key configured")
	}

	v.options = []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		v.options = append(v.options, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.AppID != "" {
		v.options = append(v.options, jwt.WithAudience(cfg.AppID))
	}
	return v, nil
}

// Verify checks the token signature and claims and returns the caller's claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, v.options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodECDSA:
		if v.publicKey != nil {
			return v.publicKey, nil
		}
	case *jwt.SigningMethodHMAC:
		if v.secret != nil {
			return v.secret, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
}
