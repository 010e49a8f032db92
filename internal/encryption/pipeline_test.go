package encryption

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
)

// testIterations keeps the KDF cheap in tests; DecryptStream honors whatever
// count the header carries.
const testIterations = MinIterations

func encryptBuffer(t *testing.T, plaintext []byte, pass string, opts ...Option) []byte {
	t.Helper()

	opts = append([]Option{WithIterations(testIterations)}, opts...)

	var out bytes.Buffer

	err := EncryptStream(context.Background(), &out, bytes.NewReader(plaintext),
		[]byte(pass), "data.bin", int64(len(plaintext)), opts...)
	if err != nil {
		t.Fatalf("EncryptStream returned error: %v", err)
	}

	return out.Bytes()
}

func decryptBuffer(container []byte, pass string, opts ...Option) ([]byte, error) {
	var out bytes.Buffer

	_, err := DecryptStream(context.Background(), &out, bytes.NewReader(container),
		[]byte(pass), int64(len(container)), opts...)

	return out.Bytes(), err
}

func patterned(size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i)
	}

	return buf
}

func TestRoundTrip(t *testing.T) {
	sizes := []int{
		0,
		1,
		3,
		DefaultChunkSize - 1,
		DefaultChunkSize,
		DefaultChunkSize + 1,
		4 * DefaultChunkSize, // 256 KiB
	}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("%d_bytes", size), func(t *testing.T) {
			plaintext := patterned(size)

			container := encryptBuffer(t, plaintext, "test_passphrase")

			got, err := decryptBuffer(container, "test_passphrase")
			if err != nil {
				t.Fatalf("decrypt returned error: %v", err)
			}

			if !bytes.Equal(got, plaintext) {
				t.Errorf("round trip mismatch at size %d", size)
			}
		})
	}
}

func TestRoundTripCustomChunkSize(t *testing.T) {
	plaintext := patterned(10_000)

	container := encryptBuffer(t, plaintext, "pass", WithChunkSize(1024))

	got, err := decryptBuffer(container, "pass", WithChunkSize(1024))
	if err != nil {
		t.Fatalf("decrypt returned error: %v", err)
	}

	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch")
	}
}

func TestEmptyInput(t *testing.T) {
	container := encryptBuffer(t, nil, "pass")

	header, err := DecodeHeader(bytes.NewReader(container))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}

	if len(container) != header.EncodedSize() {
		t.Errorf("empty input produced %d bytes, want header-only %d", len(container), header.EncodedSize())
	}

	got, err := decryptBuffer(container, "pass")
	if err != nil {
		t.Fatalf("decrypt returned error: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("decrypted %d bytes, want 0", len(got))
	}
}

func TestWrongPassphrase(t *testing.T) {
	container := encryptBuffer(t, []byte{1, 2, 3}, "test_passphrase")

	if _, err := decryptBuffer(container, "not_the_passphrase"); !errors.Is(err, ErrAuthentication) {
		t.Errorf("got %v, want ErrAuthentication", err)
	}
}

func TestTamperDetection(t *testing.T) {
	plaintext := patterned(100)
	container := encryptBuffer(t, plaintext, "pass")

	header, err := DecodeHeader(bytes.NewReader(container))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}

	// Flip one byte per region: first ciphertext byte, a middle one, and the
	// trailing tag bytes.
	positions := []int{
		header.EncodedSize(),
		header.EncodedSize() + 50,
		len(container) - TagSize,
		len(container) - 1,
	}

	for _, pos := range positions {
		t.Run(fmt.Sprintf("byte_%d", pos), func(t *testing.T) {
			tampered := append([]byte(nil), container...)
			tampered[pos] ^= 0x01

			if _, err := decryptBuffer(tampered, "pass"); !errors.Is(err, ErrAuthentication) {
				t.Errorf("got %v, want ErrAuthentication", err)
			}
		})
	}
}

func TestTamperedMagicIsFormatError(t *testing.T) {
	container := encryptBuffer(t, []byte("payload"), "pass")
	container[0] ^= 0xFF

	if _, err := decryptBuffer(container, "pass"); !errors.Is(err, ErrFormat) {
		t.Errorf("got %v, want ErrFormat", err)
	}
}

func TestTruncatedContainer(t *testing.T) {
	container := encryptBuffer(t, patterned(DefaultChunkSize+100), "pass")

	// Cut inside the final record, leaving less than a tag.
	cut := container[:len(container)-100-TagSize+3]

	_, err := decryptBuffer(cut, "pass")
	if !errors.Is(err, ErrAuthentication) && !errors.Is(err, ErrFormat) {
		t.Errorf("got %v, want ErrAuthentication or ErrFormat", err)
	}
}

func TestEncryptionsDoNotRepeat(t *testing.T) {
	plaintext := []byte("same plaintext, same passphrase")

	first := encryptBuffer(t, plaintext, "pass")
	second := encryptBuffer(t, plaintext, "pass")

	firstHeader, err := DecodeHeader(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}

	secondHeader, err := DecodeHeader(bytes.NewReader(second))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}

	if firstHeader.Salt == secondHeader.Salt {
		t.Errorf("salt repeated across encryptions")
	}

	if firstHeader.Nonce == secondHeader.Nonce {
		t.Errorf("nonce repeated across encryptions")
	}

	if bytes.Equal(first[firstHeader.EncodedSize():], second[secondHeader.EncodedSize():]) {
		t.Errorf("ciphertext repeated across encryptions")
	}
}

func TestProgressMonotonic(t *testing.T) {
	plaintext := patterned(3*DefaultChunkSize + 17)

	var fractions []float64

	container := encryptBuffer(t, plaintext, "pass", WithProgress(func(f float64) {
		fractions = append(fractions, f)
	}))

	checkFractions := func(t *testing.T, fractions []float64) {
		t.Helper()

		if len(fractions) == 0 {
			t.Fatalf("no progress reported")
		}

		for i := 1; i < len(fractions); i++ {
			if fractions[i] < fractions[i-1] {
				t.Fatalf("progress decreased: %v -> %v", fractions[i-1], fractions[i])
			}
		}

		if last := fractions[len(fractions)-1]; last != 1.0 {
			t.Errorf("final progress %v, want exactly 1.0", last)
		}
	}

	checkFractions(t, fractions)

	fractions = nil

	var out bytes.Buffer

	_, err := DecryptStream(context.Background(), &out, bytes.NewReader(container),
		[]byte("pass"), int64(len(container)),
		WithProgress(func(f float64) { fractions = append(fractions, f) }))
	if err != nil {
		t.Fatalf("decrypt returned error: %v", err)
	}

	checkFractions(t, fractions)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer

	err := EncryptStream(ctx, &out, bytes.NewReader(patterned(DefaultChunkSize)),
		[]byte("pass"), "data.bin", int64(DefaultChunkSize), WithIterations(testIterations))
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("encrypt: got %v, want ErrCancelled", err)
	}

	container := encryptBuffer(t, patterned(64), "pass")

	if _, err := DecryptStream(ctx, &out, bytes.NewReader(container), []byte("pass"), int64(len(container))); !errors.Is(err, ErrCancelled) {
		t.Errorf("decrypt: got %v, want ErrCancelled", err)
	}
}

func TestDeclaredSizeMismatch(t *testing.T) {
	var out bytes.Buffer

	err := EncryptStream(context.Background(), &out, bytes.NewReader(patterned(100)),
		[]byte("pass"), "data.bin", 99, WithIterations(testIterations))
	if err == nil {
		t.Errorf("expected error when input exceeds the declared size")
	}
}

func TestDecryptStoredIterations(t *testing.T) {
	plaintext := []byte("iteration count travels in the header")

	container := encryptBuffer(t, plaintext, "pass", WithIterations(12_345))

	header, err := DecodeHeader(bytes.NewReader(container))
	if err != nil {
		t.Fatalf("DecodeHeader returned error: %v", err)
	}

	if header.Iterations != 12_345 {
		t.Fatalf("stored iterations %d, want 12345", header.Iterations)
	}

	// No WithIterations on decrypt: the header value must be used.
	got, err := decryptBuffer(container, "pass")
	if err != nil {
		t.Fatalf("decrypt returned error: %v", err)
	}

	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch")
	}
}
