package utils

import (
	"crypto/rand"
	"math/big"
)

const secretAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789_"

// GenerateSecretKey returns a random key suitable for SECRET_KEY.
func GenerateSecretKey(length int) (string, error) {
	if length <= 0 {
		length = 32
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(secretAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = secretAlphabet[n.Int64()]
	}
	return string(out), nil
}
