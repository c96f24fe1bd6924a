package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a developer token.
//
// Timestamps are carried as jwt.NumericDate so they travel as whole seconds
// since the epoch and accept the fractional forms other issuers emit.
type Claims struct {
	Issuer     string           `json:"iss"`
	IssuedAt   *jwt.NumericDate `json:"iat"`
	Expiration *jwt.NumericDate `json:"exp"`
}

// maxUnix is the largest expiration we emit. It is the largest integer a
// float64 holds exactly, so the value survives a JSON round trip through any
// decoder.
const maxUnix = 1<<53 - 1

// NewClaims builds claims issued at now and expiring the given number of
// seconds later. The expiration saturates at maxUnix instead of wrapping, so
// it is never before the issue time.
func NewClaims(issuer string, now time.Time, seconds uint64) Claims {
	iat := now.Unix()
	exp := int64(maxUnix)
	if iat <= maxUnix && seconds <= uint64(maxUnix-iat) {
		exp = iat + int64(seconds)
	}
	return Claims{
		Issuer:     issuer,
		IssuedAt:   jwt.NewNumericDate(time.Unix(iat, 0)),
		Expiration: jwt.NewNumericDate(time.Unix(exp, 0)),
	}
}

// Expired reports whether now is past the expiration plus tolerance. The
// instant exp+tolerance itself is still valid. Claims without an expiration
// are always expired.
func (c Claims) Expired(now time.Time, tolerance time.Duration) bool {
	if c.Expiration == nil {
		return true
	}
	if tolerance < 0 {
		tolerance = 0
	}
	return now.After(c.Expiration.Add(tolerance))
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.Expiration, nil }
func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c Claims) GetIssuer() (string, error)                   { return c.Issuer, nil }
func (c Claims) GetSubject() (string, error)                  { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }
