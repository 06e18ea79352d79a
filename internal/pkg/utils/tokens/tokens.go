package tokens

import (
	"crypto/hmac"
	"crypto/sha256"
	"strings"
)

// ServiceToken recognises the shared secret that trusted callers present as
// "<prefix><secret>". Only the peppered digest of the configured secret is kept.
type ServiceToken struct {
	prefix string
	pepper string
	digest []byte
}

// NewServiceToken returns a token that never matches when prefix or secret is empty.
func NewServiceToken(prefix, pepper, secret string) ServiceToken {
	t := ServiceToken{prefix: prefix, pepper: pepper}
	if secret != "" {
		t.digest = Digest(pepper, secret)
	}
	return t
}

// Split returns the secret part of raw if raw carries the service prefix.
func (t ServiceToken) Split(raw string) (string, bool) {
	if t.prefix == "" {
		return "", false
	}
	secret, found := strings.CutPrefix(raw, t.prefix)
	return secret, found && secret != ""
}

// Matches compares secret against the configured one in constant time.
func (t ServiceToken) Matches(secret string) bool {
	if t.digest == nil || secret == "" {
		return false
	}
	return hmac.Equal(Digest(t.pepper, secret), t.digest)
}

// Digest is HMAC-SHA256(pepper, secret).
func Digest(pepper, secret string) []byte {
	m := hmac.New(sha256.New, []byte(pepper))
	m.Write([]byte(secret))
	return m.Sum(nil)
}
