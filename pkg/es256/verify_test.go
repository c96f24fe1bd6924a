package es256

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/doodlesbykumbi/amtt/pkg/es256/token"
)

const (
	testIssuer     = "TEAMID1234"
	testExpiration = 60 * 60 * 24 * 7
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 250000000)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Helper returning a signing key and its matching verifying key from testdata
func testKeys(t *testing.T, signKID, verifyKID string, clock *fakeClock) (*SigningKey, *VerifyingKey) {
	t.Helper()
	sk, err := NewSigningKey(readTestdata(t, "private.p8"), signKID, WithClock(clock.Now))
	require.NoError(t, err)
	vk, err := NewVerifyingKey(readTestdata(t, "public.pem"), verifyKID, WithClock(clock.Now))
	require.NoError(t, err)
	return sk, vk
}

func TestVerify_RoundTrip(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.Sign(testIssuer, testExpiration)
	require.NoError(t, err)

	ok, err := vk.Verify(tok, testIssuer)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_PublicHalfOfSigningKey(t *testing.T) {
	sk, err := GenerateSigningKey(testKeyID)
	require.NoError(t, err)

	tok, err := sk.Sign(testIssuer, 60)
	require.NoError(t, err)

	ok, err := sk.Public().Verify(tok, testIssuer)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_SevenDayWindow(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.Sign(testIssuer, testExpiration)
	require.NoError(t, err)

	// The clock starts a quarter second past iat, which is whole seconds.
	clock.Advance(testExpiration*time.Second - 250*time.Millisecond)
	ok, err := vk.Verify(tok, testIssuer)
	require.NoError(t, err)
	assert.True(t, ok, "token should still be valid at its expiration instant")

	clock.Advance(time.Millisecond)
	ok, err = vk.Verify(tok, testIssuer)
	require.NoError(t, err)
	assert.False(t, ok, "token should be invalid just after expiration")

	clock.Advance(time.Second)
	ok, err = vk.Verify(tok, testIssuer)
	require.NoError(t, err)
	assert.False(t, ok, "token should be invalid one second after expiration")
}

func TestVerify_ExpirationTolerance(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.Sign(testIssuer, 1)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)

	ok, err := vk.VerifyWithTolerance(tok, testIssuer, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = vk.VerifyWithTolerance(tok, testIssuer, 3600*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_ZeroExpiration(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.Sign(testIssuer, 0)
	require.NoError(t, err)

	clock.Advance(time.Second)
	ok, err := vk.Verify(tok, testIssuer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_KeyIDMismatch(t *testing.T) {
	clock := newFakeClock()

	tests := []struct {
		name      string
		signKID   string
		verifyKID string
		expected  bool
	}{
		{name: "same key id", signKID: "AAAAAAAAAA", verifyKID: "AAAAAAAAAA", expected: true},
		{name: "different key id", signKID: "AAAAAAAAAA", verifyKID: "BBBBBBBBBB", expected: false},
		{name: "token without key id", signKID: "", verifyKID: "BBBBBBBBBB", expected: false},
		{name: "verifier without key id", signKID: "AAAAAAAAAA", verifyKID: "", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk, vk := testKeys(t, tt.signKID, tt.verifyKID, clock)
			tok, err := sk.Sign(testIssuer, testExpiration)
			require.NoError(t, err)

			ok, err := vk.Verify(tok, testIssuer)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
		})
	}
}

func TestVerify_IssuerMismatch(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.Sign("ISS-A", testExpiration)
	require.NoError(t, err)

	ok, err := vk.Verify(tok, "ISS-B")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = vk.Verify(tok, "")
	require.NoError(t, err)
	assert.True(t, ok, "an empty expected issuer accepts any issuer")
}

func TestVerify_WrongKey(t *testing.T) {
	other, err := GenerateSigningKey(testKeyID)
	require.NoError(t, err)

	clock := newFakeClock()
	_, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := other.Sign(testIssuer, testExpiration)
	require.NoError(t, err)

	ok, err := vk.Verify(tok, testIssuer)
	require.NoError(t, err)
	assert.False(t, ok)
}

func flipChar(c byte) byte {
	if c == 'A' {
		return 'B'
	}
	return 'A'
}

func TestVerify_TamperDetection(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.Sign(testIssuer, testExpiration)
	require.NoError(t, err)

	signed := tok[:strings.LastIndex(tok, ".")]
	for i := 0; i < len(signed); i++ {
		if signed[i] == '.' {
			continue
		}
		tampered := []byte(tok)
		tampered[i] = flipChar(tampered[i])

		// A flip may also break the JSON, which is reported as an error.
		ok, _ := vk.Verify(string(tampered), testIssuer)
		assert.False(t, ok, "flip at offset %d accepted", i)
	}
}

func TestVerify_SignatureSegment(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.Sign(testIssuer, testExpiration)
	require.NoError(t, err)
	signingInput := tok[:strings.LastIndex(tok, ".")]

	tests := []struct {
		name      string
		signature string
	}{
		{name: "empty", signature: ""},
		{name: "not base64", signature: "***"},
		{name: "too short", signature: base64.RawURLEncoding.EncodeToString(make([]byte, 63))},
		{name: "zeros", signature: base64.RawURLEncoding.EncodeToString(make([]byte, 64))},
		{name: "DER instead of raw", signature: base64.RawURLEncoding.EncodeToString(append([]byte{0x30, 0x44}, make([]byte, 68)...))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := vk.Verify(signingInput+"."+tt.signature, testIssuer)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	t.Run("last character changed", func(t *testing.T) {
		const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
		for _, c := range alphabet {
			if byte(c) == tok[len(tok)-1] {
				continue
			}
			variant := tok[:len(tok)-1] + string(c)
			ok, err := vk.Verify(variant, testIssuer)
			require.NoError(t, err)
			assert.False(t, ok, variant)
		}
	})
}

func TestVerify_AlgorithmMismatch(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	for _, alg := range []string{"none", "HS256", "ES384", "es256", ""} {
		t.Run(alg, func(t *testing.T) {
			header, err := token.EncodeSegment(token.Header{Algorithm: alg, KeyID: testKeyID})
			require.NoError(t, err)
			payload, err := token.EncodeSegment(token.NewClaims(testIssuer, clock.Now(), testExpiration))
			require.NoError(t, err)

			// Validly signed, so only the header algorithm is wrong.
			sig, err := jwt.SigningMethodES256.Sign(token.SigningInput(header, payload), sk.privateKey)
			require.NoError(t, err)

			ok, err := vk.Verify(token.Join(header, payload, base64.RawURLEncoding.EncodeToString(sig)), testIssuer)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerify_HeaderFieldOfWrongType(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	for _, raw := range []string{`{"alg":256,"kid":"` + testKeyID + `"}`, `{"alg":"ES256","kid":12345}`} {
		t.Run(raw, func(t *testing.T) {
			header := base64.RawURLEncoding.EncodeToString([]byte(raw))
			payload, err := token.EncodeSegment(token.NewClaims(testIssuer, clock.Now(), testExpiration))
			require.NoError(t, err)
			sig, err := jwt.SigningMethodES256.Sign(token.SigningInput(header, payload), sk.privateKey)
			require.NoError(t, err)

			ok, err := vk.Verify(token.Join(header, payload, base64.RawURLEncoding.EncodeToString(sig)), testIssuer)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestVerify_MissingExpiration(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	tok, err := sk.SignClaims(token.Claims{Issuer: testIssuer})
	require.NoError(t, err)

	ok, err := vk.VerifyWithTolerance(tok, testIssuer, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_Malformed(t *testing.T) {
	clock := newFakeClock()
	_, vk := testKeys(t, testKeyID, testKeyID, clock)

	for _, raw := range []string{"not-a-token", "invalid.token.value", "a.b", "a.b.c.d", ""} {
		t.Run(raw, func(t *testing.T) {
			ok, err := vk.Verify(raw, testIssuer)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.False(t, ok)
		})
	}
}

func TestVerify_Concurrent(t *testing.T) {
	clock := newFakeClock()
	sk, vk := testKeys(t, testKeyID, testKeyID, clock)

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			tok, err := sk.Sign(testIssuer, testExpiration)
			if err != nil {
				return err
			}
			ok, err := vk.Verify(tok, testIssuer)
			if err != nil {
				return err
			}
			assert.True(t, ok)
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
