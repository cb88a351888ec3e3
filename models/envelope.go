package models

// EncryptedEnvelope is the opaque encrypted form of a snapshot payload:
// Base64 (standard encoding) of salt (16 bytes) ‖ nonce (12 bytes) ‖
// ciphertext with the AEAD tag appended. The whole blob is authenticated;
// splitting and verification happen inside the encryption codec, nothing
// outside it should interpret the bytes.
type EncryptedEnvelope string

// String implements fmt.Stringer without exposing the blob contents in logs.
func (e EncryptedEnvelope) String() string { return "<encrypted envelope>" }
