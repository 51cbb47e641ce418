package service

import "crypto/rand"

// codeAlphabet excludes ambiguous characters (0/O, 1/I/L) so partner staff
// can read codes back over the phone.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// generateRedemptionCode returns a fixed-length random code.
// Uniqueness is enforced by the caller against existing codes.
func generateRedemptionCode(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b)
}
