package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HeaderName carries the payload signature on webhook deliveries.
const HeaderName = "X-Hub-Signature-256"

const prefix = "sha256="

// Sign returns the header value Meta sends for body under secret.
func Sign(body, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether header is the signature of body under secret. The
// comparison runs in constant time; an empty secret is not special-cased.
func Verify(body []byte, header string, secret []byte) bool {
	expected := Sign(body, secret)
	return hmac.Equal([]byte(header), []byte(expected))
}

// Verifier checks deliveries against the app secret it was built with.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(body []byte, header string) bool {
	return Verify(body, header, v.secret)
}
