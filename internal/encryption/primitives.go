package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"runtime"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// MasterKeySize is the AES-256 key length produced by the KDF.
	MasterKeySize = 32

	// TwistKeySize is the whitening key length (HMAC-SHA-256 output).
	TwistKeySize = 32

	// SaltSize is the per-container random salt length.
	SaltSize = 16

	// NonceSize is the per-container base nonce length (GCM standard).
	NonceSize = 12

	// TagSize is the GCM authentication tag appended to every chunk record.
	TagSize = 16

	// DefaultIterations is the PBKDF2 iteration count for new containers.
	DefaultIterations = 100_000

	// MinIterations is the lowest iteration count accepted for encryption.
	MinIterations = 10_000
)

// DeriveMasterKey stretches a passphrase and salt into a 32-byte key using
// PBKDF2-HMAC-SHA-256. Deterministic: decryption relies on reproducing the
// exact key from the stored salt and iteration count.
func DeriveMasterKey(passphrase, salt []byte, iterations int) []byte {
	return pbkdf2.Key(passphrase, salt, iterations, MasterKeySize, sha256.New)
}

// DeriveTwistKey derives the whitening key as HMAC-SHA-256 over the
// file-identity context, keyed by the master key. Both sides must assemble
// the context identically; any difference changes the entire keystream.
func DeriveTwistKey(masterKey, context []byte) []byte {
	mac := hmac.New(sha256.New, masterKey)
	mac.Write(context)

	return mac.Sum(nil)
}

// twistContext builds the file-identity material bound into the twist key:
// the original filename followed by the original size as a big-endian uint64.
func twistContext(name string, size uint64) []byte {
	context := make([]byte, 0, len(name)+8)
	context = append(context, name...)
	context = binary.BigEndian.AppendUint64(context, size)

	return context
}

// newAEAD builds the AES-256-GCM instance used for chunk records.
func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return aead, nil
}

// chunkNonce folds the chunk index into the container's base nonce so that no
// two chunks seal under the same (key, nonce) pair. The index is never stored;
// both sides reconstruct it from stream position.
func chunkNonce(base []byte, index uint64) []byte {
	nonce := make([]byte, NonceSize)
	copy(nonce, base)

	tail := binary.BigEndian.Uint64(nonce[NonceSize-8:])
	binary.BigEndian.PutUint64(nonce[NonceSize-8:], tail^index)

	return nonce
}

// Zero overwrites key material in place.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}

	runtime.KeepAlive(b)
}
