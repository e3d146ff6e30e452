package messenger

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// VerifySignature checks that the platform signed the raw request body with
// the shared app secret. The header has the form "sha1=<hex>". Every
// malformed input verifies false; the digest comparison is constant-time.
func VerifySignature(body []byte, signatureHeader string, secret []byte) bool {
	scheme, sigHex, found := strings.Cut(signatureHeader, "=")
	if !found || scheme != "sha1" {
		return false
	}

	provided, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}

	mac := hmac.New(sha1.New, secret)
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}
