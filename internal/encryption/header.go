package encryption

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// containerMagic identifies a sealbox container.
	containerMagic = "ENC2"

	// legacyMagic identifies the retired single-round-hash format. It is
	// recognized only so it can be rejected with a clear error.
	legacyMagic = "ENC1"

	// DefaultChunkSize is the plaintext chunk size for new containers. It is
	// not stored in the header; both sides must agree on it.
	DefaultChunkSize = 64 * 1024

	// MaxNameLen bounds the filename field (its length is a uint16).
	MaxNameLen = 1<<16 - 1

	headerFixedSize = len(containerMagic) + SaltSize + NonceSize + 4 + 2 + 8
)

// Header is the plaintext container preamble:
//
//	magic(4) | salt(16) | nonce(12) | iterations(4) | nameLen(2) | name | originalSize(8)
//
// All multi-byte integers are big-endian. The header is written once, fully
// assembled, before any chunk; and parsed once, fully, before any chunk.
type Header struct {
	Salt       [SaltSize]byte
	Nonce      [NonceSize]byte
	Iterations uint32
	Name       string
	Size       uint64
}

// EncodedSize returns the exact on-disk length of the header.
func (h *Header) EncodedSize() int {
	return headerFixedSize + len(h.Name)
}

// Encode serializes the header. Encoding then decoding reproduces every field
// byte-exactly.
func (h *Header) Encode() ([]byte, error) {
	if len(h.Name) > MaxNameLen {
		return nil, fmt.Errorf("%w: filename exceeds %d bytes", ErrFormat, MaxNameLen)
	}

	if h.Iterations == 0 {
		return nil, fmt.Errorf("%w: zero iteration count", ErrFormat)
	}

	buf := make([]byte, 0, h.EncodedSize())
	buf = append(buf, containerMagic...)
	buf = append(buf, h.Salt[:]...)
	buf = append(buf, h.Nonce[:]...)
	buf = binary.BigEndian.AppendUint32(buf, h.Iterations)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(h.Name)))
	buf = append(buf, h.Name...)
	buf = binary.BigEndian.AppendUint64(buf, h.Size)

	return buf, nil
}

// DecodeHeader reads and validates a container preamble, consuming exactly
// the header bytes. It fails before any key derivation: a bad magic or a
// truncated field never costs a PBKDF2 run.
func DecodeHeader(reader io.Reader) (*Header, error) {
	var magic [len(containerMagic)]byte
	if _, err := io.ReadFull(reader, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", ErrFormat, err)
	}

	switch {
	case bytes.Equal(magic[:], []byte(containerMagic)):
	case bytes.Equal(magic[:], []byte(legacyMagic)):
		return nil, fmt.Errorf("%w: legacy %s container is not supported", ErrFormat, legacyMagic)
	default:
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, magic)
	}

	fixed := make([]byte, SaltSize+NonceSize+4+2)
	if _, err := io.ReadFull(reader, fixed); err != nil {
		return nil, fmt.Errorf("%w: truncated header: %v", ErrFormat, err)
	}

	header := &Header{}

	offset := copy(header.Salt[:], fixed)
	offset += copy(header.Nonce[:], fixed[offset:])

	header.Iterations = binary.BigEndian.Uint32(fixed[offset:])
	offset += 4

	nameLen := int(binary.BigEndian.Uint16(fixed[offset:]))

	rest := make([]byte, nameLen+8)
	if _, err := io.ReadFull(reader, rest); err != nil {
		return nil, fmt.Errorf("%w: truncated header: %v", ErrFormat, err)
	}

	header.Name = string(rest[:nameLen])
	header.Size = binary.BigEndian.Uint64(rest[nameLen:])

	if header.Iterations == 0 {
		return nil, fmt.Errorf("%w: zero iteration count", ErrFormat)
	}

	return header, nil
}
