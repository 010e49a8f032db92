package commands

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/sealbox/sealbox/internal/config"
)

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := cobraext.NewDefaultRootCommand(version)

	root.Use = "sealbox [flags] command [flags]"
	root.Short = "Passphrase-based file encryption utility"
	root.Long = `A file encryption utility producing self-describing, chunked,
authenticated containers from a passphrase. Files of any size are processed
in bounded-memory chunks and restored byte-for-byte on decryption.`

	root.Flags().IntP("parallel", "j", runtime.NumCPU(), "Number of parallel workers, defaults to number of CPUs")
	root.Flags().BoolP("quiet", "q", false, "Suppress non-error output")
	root.Flags().Bool("stats", false, "Print a processing summary")
	root.Flags().Bool("dry", false, "Preview the files that would be processed")
	root.Flags().Bool("delete", false, "Delete the original file after successful encryption/decryption")
	root.Flags().Bool("preserve-timestamps", false, "Restore the source modification time on the output file")

	root.Flags().StringP("passphrase", "p", "", "Passphrase (prompted for when not given)")
	root.Flags().String("passphrase-file", "", "Path to a file holding the passphrase")

	root.Flags().String("encrypt-ext", ".enc", "Suffix to append to encrypted files")
	root.Flags().String("decrypt-ext", "", "Suffix to append to decrypted files, after stripping the encrypted suffix")

	root.Flags().StringSliceP("include", "i", nil, "Only process files matching these patterns")
	root.Flags().StringSliceP("exclude", "e", nil, "Skip files matching these patterns")
	root.Flags().String("include-from", "", "Read include patterns from a JSONC file")
	root.Flags().String("exclude-from", "", "Read exclude patterns from a JSONC file")

	root.AddCommand(NewEncryptCommand(cfg), NewDecryptCommand(cfg), NewInspectCommand(cfg))

	return root
}
