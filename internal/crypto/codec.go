// SPDX-License-Identifier: Apache-2.0

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"famledger/models"
)

const (
	saltLen  = 16
	nonceLen = 12
)

// ErrWrongPasswordOrCorrupt is returned by [Codec.Decrypt] when the envelope
// fails authentication. By construction the two causes, wrong password and
// corrupted ciphertext, are indistinguishable, so they share one error.
var ErrWrongPasswordOrCorrupt = errors.New("wrong password or corrupted data")

// codec is the private implementation of [Codec].
type codec struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewCodec constructs a [Codec] with the Argon2id parameters recommended by
// OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewCodec() Codec {
	return &codec{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}
}

// deriveKey derives a 256-bit symmetric key from password and salt using
// Argon2id. The key exists only for the duration of one Encrypt or Decrypt
// call and is never persisted.
func (c *codec) deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(password),
		salt,
		c.argonTime,
		c.argonMemory,
		c.argonThreads,
		c.argonKeyLen,
	)
}

// Encrypt implements [Codec]. It derives a key from password with a fresh
// random salt, then seals plaintext with AES-256-GCM under a fresh random
// nonce. Salt and nonce are prepended to the ciphertext so Decrypt can split
// them out: blob = salt ‖ nonce ‖ ciphertext.
func (c *codec) Encrypt(plaintext []byte, password string) (models.EncryptedEnvelope, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := c.deriveKey(password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return models.EncryptedEnvelope(base64.StdEncoding.EncodeToString(blob)), nil
}

// Decrypt implements [Codec]. It splits the blob produced by Encrypt into
// salt, nonce, and ciphertext, re-derives the key, and opens the ciphertext.
// Any failure past decoding, including the authentication-tag mismatch a
// wrong password produces, is reported as [ErrWrongPasswordOrCorrupt].
func (c *codec) Decrypt(envelope models.EncryptedEnvelope, password string) ([]byte, error) {
	blob, err := base64.StdEncoding.DecodeString(string(envelope))
	if err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", ErrWrongPasswordOrCorrupt, err)
	}

	if len(blob) < saltLen+nonceLen {
		return nil, fmt.Errorf("%w: envelope too short", ErrWrongPasswordOrCorrupt)
	}

	salt, nonce, ciphertext := blob[:saltLen], blob[saltLen:saltLen+nonceLen], blob[saltLen+nonceLen:]

	key := c.deriveKey(password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	// Decrypt and verify auth tag. An error here means either the user
	// entered the wrong password or the blob was modified since sealing.
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrongPasswordOrCorrupt, err)
	}

	return plaintext, nil
}
