// Package audit provides the audit trail for token operations.
//
// Every token issued, every verification decision and every key reload can
// be recorded as an RFC5424 syslog line and, optionally, as a JSON line in
// an append-only file.
//
// # Event Types
//
//   - TokenIssueEvent: a token was minted (or minting failed)
//   - TokenVerifyEvent: a token was accepted, rejected, or was not a token
//   - KeyReloadEvent: a signing key file was (re)read
//
// # Usage
//
//	audit.SetEnabled(true)
//	audit.Log(audit.TokenIssueEvent{Issuer: teamID, KeyID: keyID, Success: true})
//
// Verification events never say which check rejected a token.
package audit
