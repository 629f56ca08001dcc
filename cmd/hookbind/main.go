package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	herrors "github.com/vango-dev/hookbind/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hookbind",
		Short: "Reactive store bindings for Go views",
		Long: `hookbind binds view nodes to observable stores.

Writes to a store key are pushed to every binding on that key, and
bindings are destroyed with the owners that use them. This tool runs
a demo inspector and a write-storm benchmark of the engine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configDir string
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "Directory containing hookbind.yaml")

	rootCmd.AddCommand(
		serveCmd(&configDir),
		benchCmd(&configDir),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		herrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
