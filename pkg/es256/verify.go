package es256

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/doodlesbykumbi/amtt/pkg/es256/token"
)

// ErrMalformed is returned when the input is not a compact token at all.
var ErrMalformed = token.ErrMalformed

// Verify is VerifyWithTolerance with no clock skew allowance.
func (k *VerifyingKey) Verify(tok, issuer string) (bool, error) {
	return k.VerifyWithTolerance(tok, issuer, 0)
}

// VerifyWithTolerance reports whether tok was signed by this key, names this
// key's id (when one is set), has not expired beyond tolerance and was issued
// by issuer (when issuer is not empty).
//
// Only structural problems are returned as errors, wrapping ErrMalformed.
// Every trust failure is a plain false and checks stop at the first one.
func (k *VerifyingKey) VerifyWithTolerance(tok, issuer string, tolerance time.Duration) (bool, error) {
	parsed, err := token.Parse(tok)
	if err != nil {
		return false, err
	}

	if parsed.Alg() != jwt.SigningMethodES256.Alg() {
		return false, nil
	}

	if k.keyID != "" && parsed.Kid() != k.keyID {
		return false, nil
	}

	signature, err := parsed.Signature()
	if err != nil {
		return false, nil
	}
	if err := jwt.SigningMethodES256.Verify(parsed.SigningInput(), signature, k.publicKey); err != nil {
		return false, nil
	}

	if parsed.Expired(k.clock(), tolerance) {
		return false, nil
	}

	if issuer != "" && parsed.Claims().Issuer != issuer {
		return false, nil
	}

	return true, nil
}
