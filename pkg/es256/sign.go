package es256

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/amtt/pkg/es256/token"
)

// ErrSigning indicates an internal failure while computing a signature.
var ErrSigning = errors.New("unable to sign token")

// Sign mints a token for issuer that expires the given number of seconds from
// now. No bound is applied to expiration; zero yields a token that is already
// at its expiration instant.
func (k *SigningKey) Sign(issuer string, expiration uint64) (string, error) {
	return k.SignClaims(token.NewClaims(issuer, k.clock(), expiration))
}

// SignClaims signs caller-built claims with this key's header.
func (k *SigningKey) SignClaims(claims token.Claims) (string, error) {
	encHeader, err := token.EncodeSegment(token.NewHeader(k.keyID))
	if err != nil {
		return "", fmt.Errorf("%w: header: %w", ErrSigning, err)
	}
	encClaims, err := token.EncodeSegment(claims)
	if err != nil {
		return "", fmt.Errorf("%w: claims: %w", ErrSigning, err)
	}

	// ES256 hashes with SHA-256 and emits r||s, each left-padded to 32 bytes.
	signature, err := jwt.SigningMethodES256.Sign(token.SigningInput(encHeader, encClaims), k.privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return token.Join(encHeader, encClaims, base64.RawURLEncoding.EncodeToString(signature)), nil
}
