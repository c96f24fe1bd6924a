// Package token provides the compact encoding of ES256 developer tokens.
//
// A token is three base64url segments joined by dots: the JSON header, the
// JSON claims, and the raw signature. This package only deals with the
// encoding; signing and verification live in the parent es256 package.
//
// # Basic Usage
//
//	tok, err := token.Parse(raw)
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, token.ErrMalformed)
//	}
//
//	fmt.Println(tok.Kid(), tok.Claims().Issuer)
//
//	if tok.Expired(time.Now(), 0) {
//	    log.Fatal("token expired")
//	}
package token
