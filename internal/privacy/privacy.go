// Package privacy keeps personal data out of logs. Nothing here alters what is
// sent to a provider; it only produces redacted text and stable hashes for
// log correlation.
package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var (
	mobileRE   = regexp.MustCompile(`(\+63|0)9\d{9}`)
	emailRE    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	accountRE  = regexp.MustCompile(`\b\d{10,12}\b`)
	greetingRE = regexp.MustCompile(`\b(Hi|Hello|Dear|Good day|Mr\.|Ms\.|Mrs\.)\s+([A-Z][a-z]+(\s[A-Z][a-z]+)?)`)
)

// Redact masks Philippine mobile numbers, email addresses, 10-12 digit
// account numbers and greeting-addressed names. Mobiles go first so their
// digits are not reported as account numbers.
func Redact(text string) string {
	if text == "" {
		return ""
	}
	out := mobileRE.ReplaceAllString(text, "[MOBILE_NUMBER]")
	out = emailRE.ReplaceAllString(out, "[EMAIL_REDACTED]")
	out = accountRE.ReplaceAllString(out, "[ACCOUNT_NUMBER]")
	out = greetingRE.ReplaceAllString(out, "${1} [NAME_REDACTED]")
	return out
}

// ContentHash is the hex SHA-256 of the redacted, lower-cased, trimmed text.
// Equal messages that differ only in personal data hash the same.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(strings.ToLower(Redact(text)))))
	return hex.EncodeToString(sum[:])
}

const fingerprintLen = 16

// NewFingerprintKey returns a random 256-bit key, hex encoded. Fingerprints
// made with it only correlate within the process that generated it.
func NewFingerprintKey() string {
	b := make([]byte, blake2b.Size256)
	_, _ = rand.Read(b) // never fails on supported platforms
	return hex.EncodeToString(b)
}

// Fingerprint returns a short keyed BLAKE2b-256 digest of a client identity
// (an IP address, usually). Without the key the value cannot be reversed by
// enumerating the address space, so key must be secret and non-empty;
// callers without one use NewFingerprintKey.
func Fingerprint(key, identity string) string {
	k := []byte(key)
	if len(k) > blake2b.Size {
		sum := blake2b.Sum256(k)
		k = sum[:]
	}
	h, err := blake2b.New256(k)
	if err != nil {
		// Unreachable: the key is at most blake2b.Size bytes.
		sum := blake2b.Sum256([]byte(identity))
		return hex.EncodeToString(sum[:])[:fingerprintLen]
	}
	h.Write([]byte(identity))
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLen]
}
