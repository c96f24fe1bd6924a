// Package es256 signs and verifies compact developer tokens with ECDSA over
// P-256 and SHA-256.
//
// # Key Material
//
// Keys are parsed from PEM and are immutable, so one key can serve any
// number of goroutines:
//
//	sk, err := es256.NewSigningKey(privatePEM, "ABCDE12345")
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, es256.ErrKeyParse)
//	}
//
//	vk, err := es256.NewVerifyingKey(publicPEM, "ABCDE12345")
//
// # Signing
//
//	tok, err := sk.Sign("TEAMID1234", 7*24*60*60)
//
// # Verification
//
// Verification separates two outcomes. A token that cannot be parsed is an
// error wrapping ErrMalformed. A token that parses but fails any trust check
// (algorithm, key id, signature, expiration, issuer) is simply false:
//
//	ok, err := vk.VerifyWithTolerance(tok, "TEAMID1234", time.Minute)
//	switch {
//	case err != nil:
//	    // not a token
//	case !ok:
//	    // untrusted
//	}
//
// # Time
//
// Both operations read the clock once per call. Tests substitute it:
//
//	sk, _ := es256.NewSigningKey(pem, kid, es256.WithClock(func() time.Time { return fixed }))
package es256
