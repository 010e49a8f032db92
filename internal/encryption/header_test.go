package encryption

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	header := &Header{
		Iterations: 100_000,
		Name:       "report.pdf",
		Size:       123_456_789,
	}

	for i := range header.Salt {
		header.Salt[i] = byte(i + 1)
	}

	for i := range header.Nonce {
		header.Nonce[i] = byte(0xA0 + i)
	}

	encoded, err := header.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	if len(encoded) != header.EncodedSize() {
		t.Errorf("encoded length %d, EncodedSize %d", len(encoded), header.EncodedSize())
	}

	decoded, err := DecodeHeader(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}

	if *decoded != *header {
		t.Errorf("decoded header %+v, want %+v", decoded, header)
	}

	// Re-encoding must reproduce the exact bytes.
	reencoded, err := decoded.Encode()
	if err != nil {
		t.Fatalf("re-Encode returned error: %v", err)
	}

	if !bytes.Equal(encoded, reencoded) {
		t.Errorf("re-encoded header differs from original")
	}
}

func TestHeaderRoundTripEmptyName(t *testing.T) {
	header := &Header{Iterations: 1, Name: "", Size: 0}

	encoded, err := header.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	decoded, err := DecodeHeader(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}

	if decoded.Name != "" || decoded.Size != 0 {
		t.Errorf("decoded header %+v, want empty name and zero size", decoded)
	}
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not a container at all")},
		{"short magic", []byte("EN")},
		{"legacy ENC1", append([]byte("ENC1"), make([]byte, 64)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeader(bytes.NewReader(tt.input))
			if !errors.Is(err, ErrFormat) {
				t.Errorf("got %v, want ErrFormat", err)
			}
		})
	}
}

func TestDecodeHeaderRejectsTruncated(t *testing.T) {
	header := &Header{Iterations: 100_000, Name: "file.bin", Size: 42}

	encoded, err := header.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	for cut := 1; cut < len(encoded); cut++ {
		if _, err := DecodeHeader(bytes.NewReader(encoded[:cut])); !errors.Is(err, ErrFormat) {
			t.Errorf("truncated at %d: got %v, want ErrFormat", cut, err)
		}
	}
}

func TestDecodeHeaderRejectsZeroIterations(t *testing.T) {
	header := &Header{Iterations: 100_000, Name: "x", Size: 1}

	encoded, err := header.Encode()
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	// Zero out the iteration field (4 bytes after magic, salt, nonce).
	offset := len(containerMagic) + SaltSize + NonceSize
	for i := range 4 {
		encoded[offset+i] = 0
	}

	if _, err := DecodeHeader(bytes.NewReader(encoded)); !errors.Is(err, ErrFormat) {
		t.Errorf("got %v, want ErrFormat", err)
	}
}

func TestEncodeRejectsInvalidHeader(t *testing.T) {
	zeroIter := &Header{Iterations: 0, Name: "x"}
	if _, err := zeroIter.Encode(); !errors.Is(err, ErrFormat) {
		t.Errorf("zero iterations: got %v, want ErrFormat", err)
	}

	longName := &Header{Iterations: 1, Name: string(make([]byte, MaxNameLen+1))}
	if _, err := longName.Encode(); !errors.Is(err, ErrFormat) {
		t.Errorf("oversized name: got %v, want ErrFormat", err)
	}
}
