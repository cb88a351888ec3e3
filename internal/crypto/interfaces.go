package crypto

import "famledger/models"

// Codec turns a plaintext payload plus a user password into an authenticated
// encrypted envelope and back. It knows nothing about files, snapshots, or
// the sync state machine; its only job is key derivation and authenticated
// encryption.
//
// Scheme per call:
//
//	salt  = 16 random bytes (fresh every Encrypt, never reused)
//	key   = Argon2id(password, salt)
//	nonce = 12 random bytes (fresh every Encrypt)
//	blob  = base64(salt ‖ nonce ‖ AES-256-GCM(key, nonce, plaintext))
//
// Decrypt cannot tell a wrong password from corrupted bytes: both surface as
// an authentication-tag mismatch, reported as [ErrWrongPasswordOrCorrupt].
// Neither the password nor the derived key outlives the call.
type Codec interface {
	// Encrypt seals plaintext under a key derived from password.
	Encrypt(plaintext []byte, password string) (models.EncryptedEnvelope, error)

	// Decrypt opens an envelope produced by Encrypt. Returns
	// [ErrWrongPasswordOrCorrupt] when the password is wrong or the blob
	// was modified, even by a single byte.
	Decrypt(envelope models.EncryptedEnvelope, password string) ([]byte, error)
}
