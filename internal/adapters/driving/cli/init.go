package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

var (
	initToken     string
	initPageIDs   []string
	initStartDate string
	initBackend   string
	initForce     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file",
	Long: `Writes a configuration file to --config (default
~/.tap-facebook-pages/config.toml). Values not given as flags are prompted
for; the access token is read without echo.

Examples:
  tap-facebook-pages init
  tap-facebook-pages init -c config.toml --page-ids 123,456 --start-date 2021-01-01`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initToken, "token", "", "long-lived user access token")
	initCmd.Flags().StringSliceVar(&initPageIDs, "page-ids", nil, "page ids to extract")
	initCmd.Flags().StringVar(&initStartDate, "start-date", "", "earliest date to extract (RFC 3339 or YYYY-MM-DD)")
	initCmd.Flags().StringVar(&initBackend, "state-backend", domain.StateBackendSQLite, "memory, sqlite or postgres")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	store, err := file.NewConfigStore(cfgFile)
	if err != nil {
		return err
	}
	if _, err := os.Stat(store.Path()); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", store.Path())
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	cfg := &domain.TapConfig{
		AccessToken:  initToken,
		PageIDs:      initPageIDs,
		StartDate:    initStartDate,
		StateBackend: initBackend,
	}

	if cfg.AccessToken == "" {
		cmd.Print("Access token: ")
		cfg.AccessToken = readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
	}
	if len(cfg.PageIDs) == 0 {
		cmd.Print("Page ids (comma separated): ")
		for _, id := range strings.Split(readLine(reader), ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.PageIDs = append(cfg.PageIDs, id)
			}
		}
	}
	if cfg.StartDate == "" {
		def := time.Now().UTC().AddDate(0, -1, 0).Format(time.DateOnly)
		cmd.Printf("Start date [%s]: ", def)
		if cfg.StartDate = readLine(reader); cfg.StartDate == "" {
			cfg.StartDate = def
		}
	}

	check := *cfg
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}
	if err := store.Save(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	cmd.Printf("Configuration written to %s\n", store.Path())
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readSecret reads without echo when in is a terminal.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(reader)
}
