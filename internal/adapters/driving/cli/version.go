package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and default Graph API version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("tap-facebook-pages version %s (Graph API %s, %s)\n",
			version, domain.DefaultAPIVersion, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
