// Package credcache stores client credentials between sessions.
//
// Values of sensitive keys are obfuscated with a secret bundled in the
// client binary and written under derived key names. This is not
// encryption. Anyone holding the binary can recover the values, and the
// checksum only detects accidental corruption, not tampering.
package credcache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"hash/crc32"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Sensitive keys.
const (
	SessionToken = "sessionToken"
	AccountEmail = "accountEmail"
	PreAuthToken = "preAuthToken"
	DeviceID     = "deviceId"
)

// ErrCorrupt is returned when a stored value cannot be decoded. Callers
// of Cache only ever observe it as a missing value.
var ErrCorrupt = errors.New("cached value is corrupt")

const (
	keyPrefix     = "x_"
	keyHashLength = 24
	checksumSize  = 4
)

var sensitiveKeys = []string{SessionToken, AccountEmail, PreAuthToken, DeviceID}

// Cache is a key value cache which obfuscates sensitive values.
type Cache struct {
	store  Store
	secret []byte
	logger log.Logger
}

// Set stores a value.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	if !isSensitive(key) {
		return c.store.Set(ctx, key, value)
	}

	return c.store.Set(ctx, c.derivedKey(key), c.encode(value))
}

// Get returns a stored value. Values which are missing, unreadable
// or corrupt are all reported as absent.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if !isSensitive(key) {
		value, ok, err := c.store.Get(ctx, key)
		if err != nil {
			c.logFailure("read", key, err)
			return "", false
		}
		return value, ok
	}

	raw, ok, err := c.store.Get(ctx, c.derivedKey(key))
	if err != nil {
		c.logFailure("read", key, err)
		return "", false
	}
	if !ok {
		return "", false
	}

	value, err := c.decode(raw)
	if err != nil {
		c.logFailure("decode", key, err)
		return "", false
	}

	return value, true
}

// Has reports whether a readable value is stored under key.
func (c *Cache) Has(ctx context.Context, key string) bool {
	_, ok := c.Get(ctx, key)
	return ok
}

// Remove deletes a stored value.
func (c *Cache) Remove(ctx context.Context, key string) error {
	if !isSensitive(key) {
		return c.store.Delete(ctx, key)
	}
	return c.store.Delete(ctx, c.derivedKey(key))
}

// Clear removes every sensitive value and then wipes the store.
func (c *Cache) Clear(ctx context.Context) error {
	for _, key := range sensitiveKeys {
		if err := c.store.Delete(ctx, c.derivedKey(key)); err != nil {
			return err
		}
	}

	return c.store.Clear(ctx)
}

func (c *Cache) derivedKey(key string) string {
	h := sha256.New()
	h.Write(c.secret)
	h.Write([]byte(key))
	return keyPrefix + hex.EncodeToString(h.Sum(nil))[:keyHashLength]
}

// encode prefixes a value with its crc32 checksum, XORs the result
// with the secret and encodes it as unpadded base64url.
func (c *Cache) encode(value string) string {
	payload := make([]byte, checksumSize+len(value))
	binary.BigEndian.PutUint32(payload, crc32.ChecksumIEEE([]byte(value)))
	copy(payload[checksumSize:], value)

	return base64.RawURLEncoding.EncodeToString(c.xor(payload))
}

func (c *Cache) decode(raw string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return "", ErrCorrupt
	}
	if len(b) < checksumSize {
		return "", ErrCorrupt
	}

	payload := c.xor(b)
	value := payload[checksumSize:]
	if binary.BigEndian.Uint32(payload) != crc32.ChecksumIEEE(value) {
		return "", ErrCorrupt
	}

	return string(value), nil
}

func (c *Cache) xor(b []byte) []byte {
	out := make([]byte, len(b))
	for i := range b {
		out[i] = b[i] ^ c.secret[i%len(c.secret)]
	}
	return out
}

func (c *Cache) logFailure(op, key string, err error) {
	level.Warn(c.logger).Log(
		"message", "cached value treated as absent",
		"op", op,
		"key", key,
		"error", err,
		"source", "credcache.Get",
	)
}

func isSensitive(key string) bool {
	for _, k := range sensitiveKeys {
		if k == key {
			return true
		}
	}
	return false
}
