package logic

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/sealbox/sealbox/internal/config"
	"github.com/sealbox/sealbox/internal/encryption"
)

// RunInspect decodes and prints container headers. No passphrase is needed
// and no key derivation happens.
func RunInspect(cfg *config.Config) error {
	if _, err := resolveFiles(cfg); err != nil {
		return fmt.Errorf("resolving files: %w", err)
	}

	var failures int

	for _, file := range cfg.Files {
		if err := inspectFile(file); err != nil {
			failures++

			fmt.Fprintf(os.Stderr, "%s: %s\n", file, color.RedString("%v", err))
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d container(s) could not be inspected", failures)
	}

	return nil
}

func inspectFile(path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	header, err := encryption.DecodeHeader(f)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", color.CyanString("%s", path))                                        //nolint:forbidigo
	fmt.Printf("  Name:       %s\n", header.Name)                                           //nolint:forbidigo
	fmt.Printf("  Size:       %s (%d bytes)\n", humanize.IBytes(header.Size), header.Size)  //nolint:forbidigo
	fmt.Printf("  KDF:        PBKDF2-HMAC-SHA-256, %d iterations\n", header.Iterations)     //nolint:forbidigo
	fmt.Printf("  Salt:       %s\n", hex.EncodeToString(header.Salt[:]))                    //nolint:forbidigo
	fmt.Printf("  Nonce:      %s\n", hex.EncodeToString(header.Nonce[:]))                   //nolint:forbidigo
	fmt.Printf("  Header:     %d bytes\n", header.EncodedSize())                            //nolint:forbidigo

	return nil
}
