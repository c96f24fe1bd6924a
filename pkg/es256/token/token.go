package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the only "alg" value this package writes.
const Algorithm = "ES256"

// ErrMalformed indicates the input is not a compact token at all: wrong number
// of segments, or a header/payload that is not base64url JSON.
var ErrMalformed = errors.New("malformed token")

// Header is the protected header of a token.
type Header struct {
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
}

// UnmarshalJSON accepts any JSON object. Fields of the wrong type decode as
// empty so the validator rejects them as a mismatch rather than as a
// malformed token.
func (h *Header) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("header is not a JSON object")
	}
	h.Algorithm, _ = fields["alg"].(string)
	h.KeyID, _ = fields["kid"].(string)
	return nil
}

// NewHeader returns an ES256 header carrying the given key id.
func NewHeader(keyID string) Header {
	return Header{Algorithm: Algorithm, KeyID: keyID}
}

// EncodeSegment serializes v to JSON and returns its unpadded base64url form.
func EncodeSegment(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// segmentDecoder rejects padding and non-zero trailing bits, so every
// segment has exactly one accepted spelling.
var segmentDecoder = jwt.NewParser(jwt.WithStrictDecoding())

// DecodeSegment reverses EncodeSegment into v.
func DecodeSegment(seg string, v any) error {
	raw, err := segmentDecoder.DecodeSegment(seg)
	if err != nil {
		return fmt.Errorf("invalid base64url: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// SigningInput is the exact byte string a signature covers.
func SigningInput(header, payload string) string {
	return header + "." + payload
}

// Join assembles the compact form.
func Join(header, payload, signature string) string {
	return strings.Join([]string{header, payload, signature}, ".")
}

// Parsed is a structurally valid token whose signature has not been checked.
type Parsed struct {
	rawHeader    string
	rawPayload   string
	rawSignature string
	header       Header
	claims       Claims
}

// Parse splits raw into its three segments and decodes the header and
// claims. Any structural problem is reported as ErrMalformed.
func Parse(raw string) (*Parsed, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, found %d", ErrMalformed, len(parts))
	}

	p := &Parsed{
		rawHeader:    parts[0],
		rawPayload:   parts[1],
		rawSignature: parts[2],
	}
	if err := DecodeSegment(p.rawHeader, &p.header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}
	if err := DecodeSegment(p.rawPayload, &p.claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %w", ErrMalformed, err)
	}

	return p, nil
}

// Header returns the decoded header.
func (p Parsed) Header() Header {
	return p.header
}

// Claims returns the decoded claims.
func (p Parsed) Claims() Claims {
	return p.claims
}

// Alg returns the header algorithm.
func (p Parsed) Alg() string {
	return p.header.Algorithm
}

// Kid returns the header key id.
func (p Parsed) Kid() string {
	return p.header.KeyID
}

// SigningInput returns the header and payload segments as transmitted.
func (p Parsed) SigningInput() string {
	return SigningInput(p.rawHeader, p.rawPayload)
}

// Signature decodes the signature segment.
func (p Parsed) Signature() ([]byte, error) {
	return segmentDecoder.DecodeSegment(p.rawSignature)
}

// Expired reports whether the claims are past their expiration at now.
func (p Parsed) Expired(now time.Time, tolerance time.Duration) bool {
	return p.claims.Expired(now, tolerance)
}
