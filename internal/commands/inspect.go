package commands

import (
	"github.com/spf13/cobra"

	"github.com/sealbox/sealbox/internal/config"
	"github.com/sealbox/sealbox/internal/logic"
)

// NewInspectCommand creates a new cobra command for the inspect subcommand.
// Inspection decodes container headers only; no passphrase is required.
func NewInspectCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "inspect [flags] [paths...]",
		Aliases: []string{"ins"},
		Short:   "Print container header information",
		Args:    cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Inspect = true

			return preRun(cfg)(cmd, args)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return logic.RunInspect(cfg)
		},
	}
}
