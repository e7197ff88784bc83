package utils

import (
	"crypto/rand" // secure random number generation for opaque codes
	"fmt"
)

// pnrAlphabet is the character set for confirmation codes.  Six
// characters over 36 symbols gives ~2.2 billion combinations; the
// booking store still retries on the rare collision.
const pnrAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewPNR generates a six-character confirmation code drawn from
// crypto/rand.  The underlying call ensures codes are not guessable
// from earlier ones.
func NewPNR() (string, error) {
	return randomFromAlphabet(pnrAlphabet, 6)
}

// NewHoldCode generates a hold code of the form "PB" followed by eight
// decimal digits, matching the code format passengers see during
// checkout.
func NewHoldCode() (string, error) {
	digits, err := randomFromAlphabet("0123456789", 8)
	if err != nil {
		return "", err
	}
	return "PB" + digits, nil
}

// randomFromAlphabet builds a string of n symbols drawn uniformly from
// alphabet.  Rejection sampling avoids the modulo bias a plain mod
// would introduce for alphabets that do not divide 256.
func randomFromAlphabet(alphabet string, n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	max := byte(256 - 256%len(alphabet))
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
