package audit

import "fmt"

// TokenVerifyEvent represents a verification decision.
// Malformed is set when the input could not be parsed as a token.
type TokenVerifyEvent struct {
	Issuer       string
	KeyID        string
	Fingerprint  string
	Valid        bool
	Malformed    bool
	ErrorMessage string
}

func (e TokenVerifyEvent) MessageID() string {
	return "verify"
}

func (e TokenVerifyEvent) Message() string {
	switch {
	case e.Malformed:
		msg := "rejected malformed token"
		if e.ErrorMessage != "" {
			msg += ": " + e.ErrorMessage
		}
		return msg
	case e.Valid:
		return fmt.Sprintf("token for %s verified with key %s", e.Issuer, e.KeyID)
	default:
		return fmt.Sprintf("token for %s failed verification with key %s", e.Issuer, e.KeyID)
	}
}

func (e TokenVerifyEvent) Severity() Severity {
	if e.Valid {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e TokenVerifyEvent) Facility() int {
	return FacilityAuth
}

func (e TokenVerifyEvent) StructuredData() map[string]map[string]string {
	outcome := "invalid"
	switch {
	case e.Malformed:
		outcome = "malformed"
	case e.Valid:
		outcome = "valid"
	}

	sd := map[string]map[string]string{
		SDIDToken: {
			"iss": e.Issuer,
			"kid": e.KeyID,
		},
		SDIDAction: {
			"operation": "verify",
			"result":    outcome,
		},
	}
	if e.Fingerprint != "" {
		sd[SDIDKey] = map[string]string{"fingerprint": e.Fingerprint}
	}
	return sd
}
