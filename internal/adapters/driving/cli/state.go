package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and reset stored bookmarks",
	Long: `Bookmarks live in the state backend of the configuration
(state_backend = sqlite or postgres). The memory backend keeps nothing
between runs.`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print stored bookmarks as a Singer state document",
	Args:  cobra.NoArgs,
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset [stream]",
	Short: "Remove the bookmarks of a stream, or all bookmarks",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStateReset,
}

var stateRunsLimit int

var stateRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runStateRuns,
}

func init() {
	stateRunsCmd.Flags().IntVarP(&stateRunsLimit, "limit", "n", 10, "number of runs to list")
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	stateCmd.AddCommand(stateRunsCmd)
	rootCmd.AddCommand(stateCmd)
}

func runStateShow(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	state, err := a.state.State(cmd.Context())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

func runStateReset(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	stream := ""
	if len(args) > 0 {
		stream = args[0]
		if _, err := a.catalog.Stream(stream); err != nil {
			return err
		}
	}
	if err := a.state.Reset(cmd.Context(), stream); err != nil {
		return err
	}

	if stream == "" {
		cmd.Println("All bookmarks removed.")
	} else {
		cmd.Printf("Bookmarks of %s removed.\n", stream)
	}
	return nil
}

func runStateRuns(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.state.Runs(cmd.Context(), stateRunsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tSTATUS\tRECORDS\tSKIPPED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.Records, r.SkippedPartitions, r.Error)
	}
	return w.Flush()
}
