package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/nativesvc/version"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.GetFullVersion())
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	return cmd
}
