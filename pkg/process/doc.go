// Package process runs the amtt operations: it loads keys, signs and
// verifies tokens, and records each outcome in the log and audit trail.
package process
