package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/nativesvc/version"
)

func main() {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Blocking HTTP bridge over an async client",
		Long: `nativesvc drives one HTTP request at a time through a blocking bridge
built on an async client and task executor. It can also run the echo
server the bridge is tested against.`,
		Version:       version.GetShortVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.AddCommand(newRequestCmd(), newServeCmd(), newVersionCmd())
	return rootCmd
}
