// Package crypto provides cryptographic utility functions.
package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const defaultSample = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Bytes returns securely generated random bytes.
func Bytes(length int) ([]byte, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// String returns a securely generated random string from an optional
// sample. Every character of the sample is equally likely.
func String(length int, samples ...string) (string, error) {
	sample := strings.Join(samples, "")
	if sample == "" {
		sample = defaultSample
	}

	max := big.NewInt(int64(len(sample)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = sample[n.Int64()]
	}

	return string(b), nil
}

// StringB64 returns a securely generated random string of length
// bytes, encoded in unpadded URL safe base64.
func StringB64(length int) (string, error) {
	b, err := Bytes(length)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Digits returns a zero padded numeric code drawn uniformly
// from [0, 10^width).
func Digits(width int) (string, error) {
	if width <= 0 || width > 18 {
		return "", fmt.Errorf("invalid code width %d", width)
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(width)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", width, n.Int64()), nil
}

// Hash returns a sha512 hash of a string.
func Hash(s string) (string, error) {
	h := sha512.New()
	_, err := h.Write([]byte(s))
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
