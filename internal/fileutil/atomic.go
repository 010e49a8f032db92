// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

const executableBits = 0o111

// PendingWrite is an in-flight atomic file write: output goes to a temp file
// in the destination directory and only reaches its final name on Commit.
type PendingWrite struct {
	SrcInfo os.FileInfo
	IsExec  bool
	File    *os.File

	tmpName string
}

// BeginAtomic stats the source file and opens a temp file next to the
// destination. Caller must defer Discard.
func BeginAtomic(src, dst string) (*PendingWrite, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("getting file info for %q: %w", src, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	return &PendingWrite{
		SrcInfo: info,
		IsExec:  info.Mode()&executableBits != 0,
		File:    tmp,
		tmpName: tmp.Name(),
	}, nil
}

// Discard closes the temp file and, if the surrounding operation failed,
// removes it. Safe to call after Commit.
func (p *PendingWrite) Discard(errp *error) {
	p.File.Close() //nolint:gosec // best-effort cleanup

	if *errp != nil {
		os.Remove(p.tmpName) //nolint:gosec // best-effort cleanup
	}
}

// Commit closes the temp file, applies perm, renames it to dst, optionally
// restores the source timestamps, and returns the output size.
func (p *PendingWrite) Commit(dst string, perm os.FileMode, preserveTimestamps bool) (int64, error) {
	if err := os.Chmod(p.tmpName, perm); err != nil {
		return 0, fmt.Errorf("setting file permissions: %w", err)
	}

	if err := p.File.Close(); err != nil {
		return 0, fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(p.tmpName, dst); err != nil {
		return 0, fmt.Errorf("renaming output file: %w", err)
	}

	if preserveTimestamps {
		modTime := p.SrcInfo.ModTime()
		if err := os.Chtimes(dst, modTime, modTime); err != nil {
			return 0, fmt.Errorf("preserving timestamps: %w", err)
		}
	}

	info, err := os.Stat(dst)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", dst, err)
	}

	return info.Size(), nil
}
