package encryption

import "errors"

var (
	// ErrFormat is returned when the container magic is missing or a header
	// field is malformed or truncated.
	ErrFormat = errors.New("invalid container format")

	// ErrAuthentication is returned when a chunk's authentication tag does not
	// verify. Wrong passphrase and tampered ciphertext are indistinguishable
	// here; the format does not leak which it was.
	ErrAuthentication = errors.New("authentication failed")

	// ErrIO wraps read or write failures from the underlying handles.
	ErrIO = errors.New("i/o failure")

	// ErrCancelled is returned when the caller abandons a running operation.
	ErrCancelled = errors.New("operation cancelled")
)
