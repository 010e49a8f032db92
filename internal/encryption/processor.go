package encryption

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/sealbox/sealbox/internal/config"
	"github.com/sealbox/sealbox/internal/fileutil"
)

// Result represents the outcome of processing a single file.
type Result struct {
	// Input file path
	Input string

	// Output file path
	Output string

	// Output file size in bytes
	OutputSize int64

	// Any error that occurred during processing
	Error error
}

// Processor drives encryption or decryption of the configured files. Each
// file runs as its own background operation; at most cfg.Parallel run at
// once. Operations share no key material: every file derives its own keys
// from the passphrase and its own salt.
type Processor struct {
	// cfg contains runtime configuration options
	cfg *config.Config

	// passphrase is borrowed from the caller for the duration of the run
	passphrase []byte

	// progress receives per-file fractional progress, may be nil
	progress func(name string, fraction float64)

	// results channels processing outcomes to the printer goroutine
	results chan Result
}

// NewProcessor creates a new Processor with the given configuration. The
// passphrase stays owned by the caller; the Processor never copies it.
func NewProcessor(cfg *config.Config, passphrase []byte, progress func(string, float64)) (*Processor, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("passphrase cannot be empty")
	}

	return &Processor{
		cfg:        cfg,
		passphrase: passphrase,
		progress:   progress,
		results:    make(chan Result, len(cfg.Files)),
	}, nil
}

// ProcessFiles concurrently processes all files specified in the
// configuration. Returns the number of successfully processed files, the
// number of errors, and the total output size.
func (p *Processor) ProcessFiles(ctx context.Context) (processed, errored int, totalSize int64, err error) {
	group := errgroup.Group{}
	group.SetLimit(p.cfg.Parallel)

	done := make(chan struct{})

	go func() {
		defer close(done)

		for result := range p.results {
			if result.Error != nil {
				errored++

				fmt.Fprintf(os.Stderr, "Error processing %q: %s\n", result.Input, color.RedString("%v", result.Error))
			} else {
				processed++

				totalSize += result.OutputSize

				if !p.cfg.Quiet {
					fmt.Printf("Processed %q -> %q\n", result.Input, result.Output) //nolint:forbidigo
				}
			}

			if p.cfg.Delete && result.Error == nil {
				if err := os.Remove(result.Input); err != nil {
					fmt.Fprintf(os.Stderr, "Error deleting %q: %v\n", result.Input, err)
				} else if !p.cfg.Quiet {
					fmt.Printf("Deleted %q\n", result.Input) //nolint:forbidigo
				}
			}
		}
	}()

	for _, file := range p.cfg.Files {
		group.Go(func() error {
			outPath := p.outputPath(file)

			size, err := p.processFile(ctx, file, outPath)
			if err != nil {
				p.results <- Result{Input: file, Error: err}

				return err
			}

			p.results <- Result{Input: file, Output: outPath, OutputSize: size}

			return nil
		})
	}

	err = group.Wait()

	close(p.results)

	<-done // Wait for printer to finish

	if err != nil {
		return processed, errored, totalSize, fmt.Errorf("processing files: %w", err)
	}

	return processed, errored, totalSize, nil
}

// processFile runs one file through the streaming pipeline on a background
// operation, writing output through an atomic temp file.
func (p *Processor) processFile(ctx context.Context, filename, outPath string) (size int64, err error) {
	pending, err := fileutil.BeginAtomic(filename, outPath)
	if err != nil {
		return 0, fmt.Errorf("preparing atomic write: %w", err)
	}

	defer pending.Discard(&err)

	inFile, err := os.Open(filepath.Clean(filename))
	if err != nil {
		return 0, fmt.Errorf("%w: opening input file: %v", ErrIO, err)
	}
	defer inFile.Close()

	inSize := pending.SrcInfo.Size()

	op := Start(ctx, func(ctx context.Context, progress func(float64)) error {
		if p.cfg.Decrypt {
			_, err := DecryptStream(ctx, pending.File, inFile, p.passphrase, inSize, WithProgress(progress))

			return err
		}

		return EncryptStream(ctx, pending.File, inFile, p.passphrase,
			filepath.Base(filename), inSize,
			WithProgress(progress), WithIterations(p.cfg.Iterations))
	})

	var terminal bool

	var opErr error

	for event := range op.Events() {
		switch event.Kind {
		case EventProgress:
			if p.progress != nil {
				p.progress(filename, event.Progress)
			}
		case EventDone:
			terminal = true
		case EventFailed:
			terminal = true
			opErr = event.Err
		}
	}

	if !terminal {
		return 0, ErrCancelled
	}

	if opErr != nil {
		return 0, opErr
	}

	if err := inFile.Close(); err != nil {
		return 0, fmt.Errorf("closing input file: %w", err)
	}

	const ownerReadWrite = 0o600

	perm := os.FileMode(ownerReadWrite)

	if pending.IsExec {
		perm |= executableBits
	}

	size, err = pending.Commit(outPath, perm, p.cfg.PreserveTimestamps)
	if err != nil {
		return 0, fmt.Errorf("finalizing output: %w", err)
	}

	return size, nil
}

const executableBits = 0o111

// outputPath generates the output file path based on the input filename
// and the configured suffixes for encryption/decryption.
func (p *Processor) outputPath(filename string) string {
	ext := p.cfg.EncryptSuffix

	if p.cfg.Decrypt {
		filename = strings.TrimSuffix(filename, p.cfg.EncryptSuffix)
		ext = p.cfg.DecryptSuffix
	}

	return filepath.Join(filepath.Dir(filename),
		filepath.Base(filename)+ext)
}
