// Package encryption implements the sealbox container format: passphrase-based
// AES-256-GCM with a ChaCha20 whitening layer, streamed in bounded-size chunks.
// Containers are self-describing; everything needed to reconstruct the keys
// except the passphrase lives in the plaintext header.
package encryption
