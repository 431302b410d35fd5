// Package cli provides the command line interface of the tap.
//
// Invoked without a subcommand the tap follows the Singer convention:
//
//	tap-facebook-pages --config config.json [--state state.json] [--catalog catalog.json]
//	tap-facebook-pages --config config.json --discover
//
// Singer messages go to stdout, logs go to stderr.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile     string
	stateFile   string
	catalogFile string
	discover    bool
	verbose     bool
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "tap-facebook-pages",
	Short: "Singer tap for Facebook Pages",
	Long: `Extracts page details, posts, attachments, tagged profiles and page and
post insights from the Facebook Graph API as a Singer stream.

Without a subcommand the tap runs in Singer mode: --discover prints the
catalog, otherwise the selected streams are extracted.`,
	Args:              cobra.NoArgs,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	RunE:              runTap,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (JSON, TOML or YAML)")
	flags.StringVarP(&stateFile, "state", "s", "", "Singer state file")
	flags.StringVar(&catalogFile, "catalog", "", "Singer catalog file selecting streams")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")
	rootCmd.Flags().BoolVarP(&discover, "discover", "d", false, "print the catalog and exit")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormat(logFormat)
	logger.SetVerbose(verbose)
	return nil
}

func runTap(cmd *cobra.Command, _ []string) error {
	if discover {
		return runDiscover(cmd, nil)
	}
	return runSync(cmd, nil)
}
