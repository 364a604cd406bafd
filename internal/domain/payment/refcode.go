package payment

import "math/rand/v2"

const (
	refCodeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	refCodeLength   = 20
)

// NewRefCode returns a 20-character lowercase-alphanumeric order reference.
// The code is a non-cryptographic identifier: uniqueness is guaranteed by
// the storage-layer constraint plus retry-on-conflict, not by randomness.
func NewRefCode() string {
	b := make([]byte, refCodeLength)
	for i := range b {
		b[i] = refCodeAlphabet[rand.IntN(len(refCodeAlphabet))]
	}
	return string(b)
}
