// Package config provides configuration management for amtt.
//
// # Configuration Sources
//
// Each attribute is resolved from, lowest precedence first:
//
//   - built-in defaults
//   - $AMTT_CONFIG_PATH/amtt.yml (default $HOME/.config/amtt/amtt.yml)
//   - a .env file in the working directory
//   - AMTT_* environment variables
//   - command-line flags
//
// The source of every value is recorded and shown by
// "amtt configuration show".
//
// # Key Configuration Options
//
//   - AMTT_TEAM_ID: issuer placed in and expected from tokens
//   - AMTT_KEY_ID: key identifier in the token header
//   - AMTT_KEY_PATH: private key file used by gen-token
//   - AMTT_PUBLIC_KEY_PATH: public key file used by verify
//   - AMTT_EXPIRATION: token lifetime in seconds
//   - AMTT_TIME_TOLERANCE: clock skew allowed past expiration
//   - AMTT_AUDIT, AMTT_AUDIT_FILE: audit trail
//   - AMTT_LOG_LEVEL, AMTT_LOG_FORMAT: operational logging
package config
