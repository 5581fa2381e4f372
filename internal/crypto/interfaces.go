package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/sealer_mock.go -package=mock

// Sealer encrypts small string values before they reach a storage medium
// that offers no protection of its own (the cookie jar file).
//
// Scheme:
//
//	Key    = Argon2id(secret, sealSalt)          (once, at construction)
//	Sealed = base64(nonce ‖ XChaCha20-Poly1305(Key, nonce, plain))
type Sealer interface {
	// Seal encrypts plain and returns a base64 (standard encoding) blob.
	Seal(plain string) (string, error)

	// Open reverses Seal. It fails when the blob was produced with a
	// different secret or has been tampered with.
	Open(sealed string) (string, error)
}
