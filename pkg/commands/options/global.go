// Package options defines shared flag helpers for CLI commands.
package options

import (
	"github.com/spf13/cobra"
)

// GlobalOptions are persistent flags available on every command.
type GlobalOptions struct {
	Owner   string
	Verbose bool
}

func AddGlobalArgs(cmd *cobra.Command, o *GlobalOptions) {
	cmd.PersistentFlags().StringVar(&o.Owner, "owner", "",
		"Act as this owner. Defaults to the configured owner.")
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"Log engine operations to stderr.")
}
