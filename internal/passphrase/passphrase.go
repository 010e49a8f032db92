// Package passphrase acquires the user's passphrase from flag, file,
// environment, or an interactive terminal prompt, in that order.
package passphrase

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// EnvVar is consulted when no passphrase flag or file is given.
const EnvVar = "SEALBOX_PASSPHRASE"

// Zero overwrites a byte slice with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}

	runtime.KeepAlive(b)
}

// Resolve returns the passphrase to use. confirm requests a second prompt
// (encryption) so typos do not produce an unopenable container. Interactive
// prompting is the last resort.
func Resolve(flagValue, filePath string, confirm bool) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}

	if filePath != "" {
		data, err := os.ReadFile(filePath) //nolint:gosec // path is user-supplied by design
		if err != nil {
			return nil, fmt.Errorf("reading passphrase file: %w", err)
		}

		pass := []byte(strings.TrimRight(string(data), "\r\n"))
		if len(pass) == 0 {
			return nil, errors.New("passphrase file is empty")
		}

		return pass, nil
	}

	if env := os.Getenv(EnvVar); env != "" {
		return []byte(env), nil
	}

	if confirm {
		return promptWithConfirm("Enter passphrase: ", "Confirm passphrase: ")
	}

	return prompt("Enter passphrase: ")
}

func prompt(label string) ([]byte, error) {
	pass, err := readPassword(label)
	if err != nil {
		return nil, err
	}

	if len(pass) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}

	return pass, nil
}

func promptWithConfirm(label, confirmLabel string) ([]byte, error) {
	pass, err := prompt(label)
	if err != nil {
		return nil, err
	}

	again, err := readPassword(confirmLabel)
	if err != nil {
		Zero(pass)

		return nil, err
	}

	if !bytes.Equal(pass, again) {
		Zero(pass)
		Zero(again)

		return nil, errors.New("passphrases do not match")
	}

	Zero(again)

	return pass, nil
}

func readPassword(label string) ([]byte, error) {
	fmt.Fprint(os.Stderr, label)

	if term.IsTerminal(int(syscall.Stdin)) {
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)

		return pass, err
	}

	// STDIN is piped; fall back to the controlling terminal.
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, fmt.Errorf("cannot prompt for passphrase: set %s or use --passphrase-file", EnvVar)
	}
	defer tty.Close()

	pass, err := term.ReadPassword(int(tty.Fd()))
	fmt.Fprintln(os.Stderr)

	return pass, err
}
