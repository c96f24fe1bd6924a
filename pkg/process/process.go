package process

import (
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/amtt/pkg/audit"
	"github.com/doodlesbykumbi/amtt/pkg/es256"
	"github.com/doodlesbykumbi/amtt/pkg/es256/token"
	"github.com/doodlesbykumbi/amtt/pkg/keyfile"
	"github.com/doodlesbykumbi/amtt/pkg/logger"
)

// GenToken reads a PEM private key from r and signs a token for teamID that
// lives for exp seconds. Callers validate the identifiers and exp first.
func GenToken(r io.Reader, teamID, keyID string, exp uint64, opts ...es256.Option) (string, error) {
	pemBytes, err := keyfile.ReadAll(r)
	if err != nil {
		return "", err
	}
	return GenTokenFromPEM(pemBytes, teamID, keyID, exp, opts...)
}

// GenTokenFromPEM is GenToken for key material already in memory.
func GenTokenFromPEM(pemBytes []byte, teamID, keyID string, exp uint64, opts ...es256.Option) (string, error) {
	key, err := es256.NewSigningKey(pemBytes, keyID, opts...)
	if err != nil {
		audit.Log(audit.TokenIssueEvent{
			Issuer:       teamID,
			KeyID:        keyID,
			ErrorMessage: err.Error(),
		})
		return "", err
	}
	return SignWith(key, teamID, exp)
}

// SignWith signs a token for teamID with an already loaded key.
func SignWith(key *es256.SigningKey, teamID string, exp uint64) (string, error) {
	tok, err := key.Sign(teamID, exp)
	if err != nil {
		audit.Log(audit.TokenIssueEvent{
			Issuer:       teamID,
			KeyID:        key.KeyID(),
			Fingerprint:  key.Fingerprint(),
			ErrorMessage: err.Error(),
		})
		return "", err
	}

	expiresAt := expiry(tok)
	logger.Named("process").Debug("token issued",
		logger.Issuer(teamID),
		logger.KeyID(key.KeyID()),
		logger.Fingerprint(key.Fingerprint()),
		logger.ExpiresAt(expiresAt),
	)
	audit.Log(audit.TokenIssueEvent{
		Issuer:      teamID,
		KeyID:       key.KeyID(),
		Fingerprint: key.Fingerprint(),
		ExpiresAt:   expiresAt,
		Success:     true,
	})
	return tok, nil
}

// VerifyToken reads a PEM public key from r and checks tok against it.
// An empty keyID skips the key id check.
func VerifyToken(r io.Reader, tok, teamID, keyID string, tolerance time.Duration, opts ...es256.Option) (bool, error) {
	pemBytes, err := keyfile.ReadAll(r)
	if err != nil {
		return false, err
	}

	key, err := es256.NewVerifyingKey(pemBytes, keyID, opts...)
	if err != nil {
		return false, err
	}
	return Verify(key, tok, teamID, tolerance)
}

// Verify checks tok with an already loaded key and records the decision.
func Verify(key *es256.VerifyingKey, tok, teamID string, tolerance time.Duration) (bool, error) {
	valid, err := key.VerifyWithTolerance(tok, teamID, tolerance)

	event := audit.TokenVerifyEvent{
		Issuer:      teamID,
		KeyID:       key.KeyID(),
		Fingerprint: key.Fingerprint(),
		Valid:       valid,
	}
	if err != nil {
		event.Malformed = errors.Is(err, es256.ErrMalformed)
		event.ErrorMessage = err.Error()
	}
	audit.Log(event)

	logger.Named("process").Debug("token verified",
		logger.Issuer(teamID),
		logger.KeyID(key.KeyID()),
		logger.Tolerance(tolerance),
		zap.Bool("valid", valid),
		zap.Error(err),
	)
	return valid, err
}

// Decoded is the unverified content of a token.
type Decoded struct {
	Header token.Header `json:"header"`
	Claims token.Claims `json:"claims"`
}

// Decode parses tok without checking its signature.
func Decode(tok string) (*Decoded, error) {
	parsed, err := token.Parse(tok)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &Decoded{Header: parsed.Header(), Claims: parsed.Claims()}, nil
}

func expiry(tok string) time.Time {
	parsed, err := token.Parse(tok)
	if err != nil || parsed.Claims().Expiration == nil {
		return time.Time{}
	}
	return parsed.Claims().Expiration.Time
}
