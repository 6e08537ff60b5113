package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), styles.Title.Render("readiumd"))
		fmt.Fprintf(cmd.OutOrStdout(), "  version: %s\n", versionInfo.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", versionInfo.Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", versionInfo.Date)
		fmt.Fprintf(cmd.OutOrStdout(), "  go:      %s\n", runtime.Version())
	},
}
