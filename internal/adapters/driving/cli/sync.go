package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync [stream...]",
	Short: "Extract streams as Singer messages",
	Long: `Extracts the selected streams for every configured page and writes
SCHEMA, RECORD and STATE messages to stdout.

Streams are selected by --catalog, or by name on the command line. Without
either every stream is extracted. A --state file seeds the stored bookmarks
before extraction starts.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	streams, err := selectStreams(a, args)
	if err != nil {
		return err
	}

	if stateFile != "" {
		state, err := file.LoadState(stateFile)
		if err != nil {
			return err
		}
		if err := a.state.Import(ctx, state); err != nil {
			return err
		}
	}

	run, err := a.orchestrator(cmd.OutOrStdout()).Run(ctx, streams)
	if run != nil {
		logger.Info("Run %s %s: %d records, %d skipped partitions",
			run.ID, run.Status, run.Records, run.SkippedPartitions)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}

func selectStreams(a *app, names []string) ([]domain.Stream, error) {
	if catalogFile != "" {
		if len(names) > 0 {
			return nil, fmt.Errorf("%w: stream names and --catalog are exclusive", domain.ErrInvalidInput)
		}
		catalog, err := file.LoadCatalog(catalogFile)
		if err != nil {
			return nil, err
		}
		return a.catalog.Select(catalog)
	}
	return a.catalog.SelectNames(names)
}
