// Command amtt signs and verifies ES256 developer tokens.
//
// # Quick Start
//
//	# Create a key pair; the private key comes first in the output
//	amtt key generate -k ABCDE12345 > keys.pem
//	sed -n '/BEGIN PUBLIC KEY/,$p' keys.pem > public.pem
//
//	# Mint a 30 day token
//	amtt gen-token -t TEAMID1234 -k ABCDE12345 -p keys.pem
//
//	# Check it against the public half
//	amtt verify -t TEAMID1234 -k ABCDE12345 -p public.pem "$TOKEN"
//
// # Environment Variables
//
//   - AMTT_CONFIG_PATH: directory holding amtt.yml
//   - AMTT_TEAM_ID, AMTT_KEY_ID: default issuer and key id
//   - AMTT_KEY_PATH, AMTT_PUBLIC_KEY_PATH: default key files
//   - AMTT_EXPIRATION: default token lifetime in seconds
//   - AMTT_TIME_TOLERANCE: clock skew allowed by verify
//   - AMTT_AUDIT, AMTT_AUDIT_FILE: audit trail
//   - AMTT_LOG_LEVEL, AMTT_LOG_FORMAT: log level and encoding
package main
