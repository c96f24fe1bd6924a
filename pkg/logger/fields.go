package logger

import (
	"time"

	"go.uber.org/zap"
)

func Issuer(v string) zap.Field {
	return zap.String("iss", v)
}

func KeyID(v string) zap.Field {
	return zap.String("kid", v)
}

// Fingerprint is the hex SHA-256 of a public key.
func Fingerprint(v string) zap.Field {
	return zap.String("fingerprint", v)
}

func Path(v string) zap.Field {
	return zap.String("path", v)
}

func ExpiresAt(v time.Time) zap.Field {
	return zap.Time("expires_at", v)
}

func Tolerance(v time.Duration) zap.Field {
	return zap.Duration("tolerance", v)
}
