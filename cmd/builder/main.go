// Command builder renders the static site.
//
// "builder run <auto|id> <triggered_by>" supervises one build and records its
// outcome in the build ledger. It runs "builder render" as a child process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	run := func() int {
		if err := loadDotEnv(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		cfg, err := parseConfig(os.Environ())
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}

		if err = newRootCmd(cfg).Execute(); err != nil {
			// Stderr is stored as the build error message, so keep it to the error itself.
			_, _ = fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}
	os.Exit(run())
}

func newRootCmd(cfg *config) *cobra.Command {
	root := &cobra.Command{
		Use:           "builder",
		Short:         "Render and publish the static site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(cfg), newRenderCmd(cfg))
	return root
}
