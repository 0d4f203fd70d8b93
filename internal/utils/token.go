package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// DefaultTokenBytes gives 192 bits of entropy for device and
	// session tokens.
	DefaultTokenBytes = 24
	idSuffixBytes     = 9
	codeSpace         = 1000000
)

// GenerateID returns an opaque identifier like "dev_3xK9qLmPZa2v".
// The random suffix carries 72 bits of entropy, so collisions are not
// checked against the store.
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, randomURLSafe(idSuffixBytes))
}

// GenerateToken returns a URL-safe bearer token from nbytes of
// cryptographically random data.
func GenerateToken(nbytes int) string {
	if nbytes <= 0 {
		nbytes = DefaultTokenBytes
	}
	return randomURLSafe(nbytes)
}

// GenerateCode returns a zero-padded 6-digit pairing code drawn
// uniformly from [0, 1000000). Too little entropy to be unique on its
// own; callers must check for collisions at issuance.
func GenerateCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		// crypto/rand failure means the process has no usable
		// entropy source; nothing sensible to return.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

func randomURLSafe(nbytes int) string {
	buf := make([]byte, nbytes)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
