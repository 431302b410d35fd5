package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tap-facebook-pages/internal/connectors/facebook"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/services"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Print the Singer catalog",
	Long: `Prints the catalog of every stream with its schema and metadata.
Save it, deselect streams, and pass it back with --catalog.`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

var streamsKind string

var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "List the available streams",
	Args:  cobra.NoArgs,
	RunE:  runStreams,
}

func init() {
	streamsCmd.Flags().StringVar(&streamsKind, "kind", "", "only streams of this kind, e.g. page_insights")
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(streamsCmd)
}

// runDiscover needs no configuration; the catalog is compiled in.
func runDiscover(cmd *cobra.Command, _ []string) error {
	catalog := services.NewCatalogService(facebook.Streams()).Discover()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(catalog); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}

func runStreams(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STREAM\tKIND\tREPLICATION\tKEY")
	for _, st := range facebook.Streams() {
		if streamsKind != "" && string(st.Kind) != streamsKind {
			continue
		}
		key := st.ReplicationKey
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Name, st.Kind, st.ReplicationMethod, key)
	}
	return w.Flush()
}
