package encryption

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
)

// Option adjusts pipeline behavior.
type Option func(*options)

type options struct {
	chunkSize  int
	iterations int
	progress   func(float64)
}

// WithChunkSize overrides the plaintext chunk size. The chunk size is not
// stored in the container; encryptor and decryptor must agree on it.
func WithChunkSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.chunkSize = size
		}
	}
}

// WithIterations overrides the PBKDF2 iteration count used for encryption.
// Decryption always honors the count stored in the header.
func WithIterations(iterations int) Option {
	return func(o *options) {
		if iterations > 0 {
			o.iterations = iterations
		}
	}
}

// WithProgress installs a callback receiving fractions in [0, 1]. Values are
// non-decreasing within one operation and reach exactly 1.0 on success.
func WithProgress(fn func(float64)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

func newOptions(opts []Option) options {
	resolved := options{
		chunkSize:  DefaultChunkSize,
		iterations: DefaultIterations,
	}

	for _, opt := range opts {
		opt(&resolved)
	}

	return resolved
}

// EncryptStream seals src into dst as a sealbox container. name and size
// identify the original file and are bound into the whitening keystream; size
// must be the exact number of plaintext bytes src will yield.
//
// All secret material derived from passphrase is wiped before returning, on
// every path. An empty src produces a header-only container.
func EncryptStream(ctx context.Context, dst io.Writer, src io.Reader, passphrase []byte, name string, size int64, opts ...Option) error {
	o := newOptions(opts)

	if size < 0 {
		return fmt.Errorf("%w: negative plaintext size", ErrFormat)
	}

	header := &Header{
		Iterations: uint32(o.iterations),
		Name:       name,
		Size:       uint64(size),
	}

	if _, err := rand.Read(header.Salt[:]); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	if _, err := rand.Read(header.Nonce[:]); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	encoded, err := header.Encode()
	if err != nil {
		return err
	}

	masterKey := DeriveMasterKey(passphrase, header.Salt[:], o.iterations)
	defer Zero(masterKey)

	twistKey := DeriveTwistKey(masterKey, twistContext(name, header.Size))
	defer Zero(twistKey)

	aead, err := newAEAD(masterKey)
	if err != nil {
		return err
	}

	if _, err := dst.Write(encoded); err != nil {
		return fmt.Errorf("%w: writing header: %v", ErrIO, err)
	}

	buf := make([]byte, o.chunkSize)
	sealed := make([]byte, 0, o.chunkSize+TagSize)

	var processed int64

	for index := uint64(0); ; index++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		n, readErr := io.ReadFull(src, buf)
		if readErr == io.EOF {
			// Zero-length read: the previous chunk was the last one, or the
			// input was empty. Nothing left to seal.
			break
		}

		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: reading chunk: %v", ErrIO, readErr)
		}

		chunk := buf[:n]
		if err := twistXOR(twistKey, index, chunk); err != nil {
			return err
		}

		sealed = aead.Seal(sealed[:0], chunkNonce(header.Nonce[:], index), chunk, nil)

		if _, err := dst.Write(sealed); err != nil {
			return fmt.Errorf("%w: writing chunk: %v", ErrIO, err)
		}

		processed += int64(n)

		if o.progress != nil && size > 0 {
			o.progress(min(1, float64(processed)/float64(size)))
		}

		if n < o.chunkSize {
			// Short final chunk.
			break
		}
	}

	if processed != size {
		return fmt.Errorf("%w: plaintext is %d bytes, declared %d", ErrIO, processed, size)
	}

	if o.progress != nil {
		o.progress(1)
	}

	return nil
}

// DecryptStream restores the plaintext of a sealbox container. totalSize is
// the full container length in bytes when known (used only for progress
// reporting; pass a negative value when unknown). The parsed header is
// returned on success.
//
// Any tag mismatch aborts the whole operation with ErrAuthentication; bytes
// already written to dst must not be trusted unless the call returns nil.
func DecryptStream(ctx context.Context, dst io.Writer, src io.Reader, passphrase []byte, totalSize int64, opts ...Option) (*Header, error) {
	o := newOptions(opts)

	header, err := DecodeHeader(src)
	if err != nil {
		return nil, err
	}

	ciphertextTotal := totalSize - int64(header.EncodedSize())

	masterKey := DeriveMasterKey(passphrase, header.Salt[:], int(header.Iterations))
	defer Zero(masterKey)

	twistKey := DeriveTwistKey(masterKey, twistContext(header.Name, header.Size))
	defer Zero(twistKey)

	aead, err := newAEAD(masterKey)
	if err != nil {
		return nil, err
	}

	recordSize := o.chunkSize + TagSize
	record := make([]byte, recordSize)

	var consumed, written int64

	for index := uint64(0); ; index++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		n, readErr := io.ReadFull(src, record)
		if readErr == io.EOF {
			break
		}

		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: reading chunk: %v", ErrIO, readErr)
		}

		if n < TagSize {
			return nil, fmt.Errorf("%w: truncated chunk record", ErrFormat)
		}

		plain, err := aead.Open(record[:0], chunkNonce(header.Nonce[:], index), record[:n], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: wrong passphrase or corrupted data", ErrAuthentication)
		}

		if err := twistXOR(twistKey, index, plain); err != nil {
			return nil, err
		}

		if _, err := dst.Write(plain); err != nil {
			return nil, fmt.Errorf("%w: writing plaintext: %v", ErrIO, err)
		}

		consumed += int64(n)
		written += int64(len(plain))

		if o.progress != nil && ciphertextTotal > 0 {
			o.progress(min(1, float64(consumed)/float64(ciphertextTotal)))
		}

		if n < recordSize {
			break
		}
	}

	if written != int64(header.Size) {
		return nil, fmt.Errorf("%w: container declares %d bytes, recovered %d", ErrFormat, header.Size, written)
	}

	if o.progress != nil {
		o.progress(1)
	}

	return header, nil
}
