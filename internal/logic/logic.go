// Package logic implements the core business logic for the encryption/decryption.
package logic

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"

	"github.com/sealbox/sealbox/internal/config"
	"github.com/sealbox/sealbox/internal/encryption"
	"github.com/sealbox/sealbox/internal/filter"
	"github.com/sealbox/sealbox/internal/passphrase"
)

// Run is the main logic of the application.
func Run(cfg *config.Config) error {
	scanned, excluded, start, done, err := preamble(cfg)
	if done || err != nil {
		return err
	}

	pass, err := passphrase.Resolve(cfg.Passphrase, cfg.PassphraseFile, !cfg.Decrypt)
	if err != nil {
		return err
	}
	defer passphrase.Zero(pass)

	var report func(string, float64)

	var spin *spinner.Spinner

	if !cfg.Quiet {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		spin.Start()

		defer spin.Stop()

		var mu sync.Mutex

		report = func(name string, fraction float64) {
			mu.Lock()
			spin.Suffix = fmt.Sprintf(" %s %3.0f%%", filepath.Base(name), fraction*100)
			mu.Unlock()
		}
	}

	proc, err := encryption.NewProcessor(cfg, pass, report)
	if err != nil {
		return fmt.Errorf("creating processor: %w", err)
	}

	// Ctrl-C abandons all in-flight operations; partial outputs are discarded
	// by the atomic-write layer.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	processed, errored, totalSize, err := proc.ProcessFiles(ctx)

	if spin != nil {
		spin.Stop()
	}

	if cfg.Stats {
		printStats(scanned, excluded, processed, errored, totalSize, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("running logic: %w", err)
	}

	return nil
}

// preamble resolves files and handles dry run. Returns done=true if dry run was executed.
func preamble(cfg *config.Config) (int, int, time.Time, bool, error) {
	start := time.Now()

	scanned, err := resolveFiles(cfg)
	if err != nil {
		return 0, 0, start, false, fmt.Errorf("resolving files: %w", err)
	}

	excluded := scanned - len(cfg.Files)

	if cfg.Dry {
		return scanned, excluded, start, true, dryRun(cfg, scanned, excluded, start)
	}

	return scanned, excluded, start, false, nil
}

// resolveFiles normalizes positional args, expands directories, and applies
// include/exclude filtering. Returns the total number of files scanned.
func resolveFiles(cfg *config.Config) (int, error) {
	includes := append([]string{}, cfg.Include...)
	excludes := append([]string{}, cfg.Exclude...)

	if cfg.IncludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.IncludeFrom)
		if err != nil {
			return 0, fmt.Errorf("loading include patterns: %w", err)
		}

		includes = append(includes, patterns...)
	}

	if cfg.ExcludeFrom != "" {
		patterns, err := filter.LoadPatterns(cfg.ExcludeFrom)
		if err != nil {
			return 0, fmt.Errorf("loading exclude patterns: %w", err)
		}

		excludes = append(excludes, patterns...)
	}

	hasIncludes := len(includes) > 0 || cfg.IncludeFrom != ""

	if (cfg.Decrypt || cfg.Inspect) && !hasIncludes {
		includes = append(includes, "*"+cfg.EncryptSuffix)
		hasIncludes = true
	}

	files, scanned, err := filter.Resolve(cfg.Files, includes, excludes, hasIncludes)
	if err != nil {
		return scanned, fmt.Errorf("filtering files: %w", err)
	}

	cfg.Files = files

	return scanned, nil
}

// dryRun previews what would be processed without touching any file.
func dryRun(cfg *config.Config, scanned, excluded int, start time.Time) error {
	var totalSize int64

	processed := len(cfg.Files)

	for _, file := range cfg.Files {
		if !cfg.Quiet {
			fmt.Printf("Processed %q -> %q\n", file, outputPath(file, cfg)) //nolint:forbidigo
		}

		if cfg.Stats {
			if info, err := os.Stat(file); err == nil {
				totalSize += info.Size()
			}
		}
	}

	if cfg.Stats {
		printStats(scanned, excluded, processed, 0, totalSize, time.Since(start))
	}

	return nil
}

func outputPath(filename string, cfg *config.Config) string {
	ext := cfg.EncryptSuffix

	if cfg.Decrypt {
		filename = strings.TrimSuffix(filename, cfg.EncryptSuffix)
		ext = cfg.DecryptSuffix
	}

	return filepath.Join(filepath.Dir(filename), filepath.Base(filename)+ext)
}

func printStats(scanned, excluded, processed, errored int, totalSize int64, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "\nStats\n")
	fmt.Fprintf(os.Stderr, "  Scanned:   %d\n", scanned)
	fmt.Fprintf(os.Stderr, "  Excluded:  %d\n", excluded)
	fmt.Fprintf(os.Stderr, "  Processed: %d\n", processed)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", errored)
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(os.Stderr, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(os.Stderr, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
