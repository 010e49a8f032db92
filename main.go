package main

import (
	"fmt"
	"os"

	"github.com/sealbox/sealbox/internal/commands"
	"github.com/sealbox/sealbox/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cfg := &config.Config{}

	if err := commands.NewRootCommand(cfg, version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		os.Exit(1)
	}
}
