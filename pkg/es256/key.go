package es256

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrKeyParse indicates PEM key material could not be turned into a P-256 key.
var ErrKeyParse = errors.New("unable to parse ES256 key")

// Clock returns the current time. Keys read it once per Sign or Verify call.
type Clock func() time.Time

// Option configures a key at construction time.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func newOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SigningKey is an immutable P-256 private key bound to an optional key id.
type SigningKey struct {
	privateKey *ecdsa.PrivateKey
	keyID      string
	clock      Clock
}

// VerifyingKey is an immutable P-256 public key bound to an optional key id.
// When the key id is set, Verify only accepts tokens whose header names it.
type VerifyingKey struct {
	publicKey *ecdsa.PublicKey
	keyID     string
	clock     Clock
}

// NewSigningKey parses a PEM encoded EC private key in SEC 1
// ("EC PRIVATE KEY") or PKCS #8 ("PRIVATE KEY") form.
func NewSigningKey(pemBytes []byte, keyID string, opts ...Option) (*SigningKey, error) {
	pkey, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	if pkey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: curve %s is not P-256", ErrKeyParse, pkey.Curve.Params().Name)
	}

	o := newOptions(opts)
	return &SigningKey{privateKey: pkey, keyID: keyID, clock: o.clock}, nil
}

// NewVerifyingKey parses a PEM encoded PKIX public key or X.509 certificate.
func NewVerifyingKey(pemBytes []byte, keyID string, opts ...Option) (*VerifyingKey, error) {
	pub, err := jwt.ParseECPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyParse, err)
	}
	if pub.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: curve %s is not P-256", ErrKeyParse, pub.Curve.Params().Name)
	}

	o := newOptions(opts)
	return &VerifyingKey{publicKey: pub, keyID: keyID, clock: o.clock}, nil
}

// GenerateSigningKey generates a new P-256 key for token signing
func GenerateSigningKey(keyID string, opts ...Option) (*SigningKey, error) {
	pkey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	return &SigningKey{privateKey: pkey, keyID: keyID, clock: o.clock}, nil
}

// KeyID returns the key id placed in token headers.
func (k *SigningKey) KeyID() string {
	return k.keyID
}

// Public returns the verifying half of the key with the same key id and clock.
func (k *SigningKey) Public() *VerifyingKey {
	return &VerifyingKey{
		publicKey: &k.privateKey.PublicKey,
		keyID:     k.keyID,
		clock:     k.clock,
	}
}

// PrivatePem returns the private key as PKCS #8 PEM, the layout Apple hands
// out in .p8 files.
func (k *SigningKey) PrivatePem() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.privateKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

func (k *SigningKey) PublicPem() ([]byte, error) {
	return k.Public().PublicPem()
}

func (k *SigningKey) Fingerprint() string {
	return k.Public().Fingerprint()
}

// KeyID returns the key id tokens must carry, or "" if any is accepted.
func (k *VerifyingKey) KeyID() string {
	return k.keyID
}

func (k *VerifyingKey) PublicPem() ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.publicKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// Fingerprint is the hex SHA-256 of the PKIX encoded public key.
func (k *VerifyingKey) Fingerprint() string {
	der, err := x509.MarshalPKIXPublicKey(k.publicKey)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}
