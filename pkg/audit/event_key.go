package audit

import "fmt"

// KeyReloadEvent represents a signing key being (re)loaded from disk
type KeyReloadEvent struct {
	Path         string
	KeyID        string
	Fingerprint  string
	Success      bool
	ErrorMessage string
}

func (e KeyReloadEvent) MessageID() string {
	return "key"
}

func (e KeyReloadEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("key %s loaded from %s", e.KeyID, e.Path)
	}
	msg := fmt.Sprintf("failed to load key %s from %s", e.KeyID, e.Path)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e KeyReloadEvent) Severity() Severity {
	if e.Success {
		return SeverityNotice
	}
	return SeverityError
}

func (e KeyReloadEvent) Facility() int {
	return FacilityAuthPriv
}

func (e KeyReloadEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDKey: {
			"kid":  e.KeyID,
			"path": e.Path,
		},
		SDIDAction: {
			"operation": "reload",
			"result":    result(e.Success),
		},
	}
	if e.Fingerprint != "" {
		sd[SDIDKey]["fingerprint"] = e.Fingerprint
	}
	return sd
}
