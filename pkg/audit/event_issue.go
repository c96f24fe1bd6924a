package audit

import (
	"fmt"
	"time"
)

// TokenIssueEvent represents minting a token
type TokenIssueEvent struct {
	Issuer       string
	KeyID        string
	Fingerprint  string
	ExpiresAt    time.Time
	Success      bool
	ErrorMessage string
}

func (e TokenIssueEvent) MessageID() string {
	return "issue"
}

func (e TokenIssueEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("token issued for %s with key %s, expires %s", e.Issuer, e.KeyID, e.ExpiresAt.UTC().Format(time.RFC3339))
	}
	msg := fmt.Sprintf("failed to issue token for %s with key %s", e.Issuer, e.KeyID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e TokenIssueEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e TokenIssueEvent) Facility() int {
	return FacilityAuthPriv
}

func (e TokenIssueEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDToken: {
			"iss": e.Issuer,
			"kid": e.KeyID,
		},
		SDIDAction: {
			"operation": "issue",
			"result":    result(e.Success),
		},
	}
	if !e.ExpiresAt.IsZero() {
		sd[SDIDToken]["exp"] = fmt.Sprintf("%d", e.ExpiresAt.Unix())
	}
	if e.Fingerprint != "" {
		sd[SDIDKey] = map[string]string{"fingerprint": e.Fingerprint}
	}
	return sd
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
