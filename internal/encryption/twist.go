package encryption

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// The twist layer XORs a second, independently keyed keystream over each
// chunk before it reaches the AEAD. The keystream depends on the file
// identity (through the twist key) and on the chunk index, so ciphertext
// spliced between containers does not decrypt even under the right
// passphrase.

// twistXOR applies the chunk's whitening keystream to buf in place. XOR is
// self-inverse, so the same call whitens on encryption and unwhitens on
// decryption.
func twistXOR(twistKey []byte, chunkIndex uint64, buf []byte) error {
	var nonce [chacha20.NonceSize]byte
	binary.BigEndian.PutUint64(nonce[4:], chunkIndex)

	stream, err := chacha20.NewUnauthenticatedCipher(twistKey, nonce[:])
	if err != nil {
		return fmt.Errorf("creating twist keystream: %w", err)
	}

	stream.XORKeyStream(buf, buf)

	return nil
}

// Keystream returns length bytes of the whitening keystream for one chunk.
// Fully deterministic in (twistKey, chunkIndex, length); distinct chunk
// indices select non-overlapping ChaCha20 nonces.
func Keystream(twistKey []byte, chunkIndex uint64, length int) ([]byte, error) {
	out := make([]byte, length)
	if err := twistXOR(twistKey, chunkIndex, out); err != nil {
		return nil, err
	}

	return out, nil
}
