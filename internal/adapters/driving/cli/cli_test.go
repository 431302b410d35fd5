package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/graphtwin"
)

const userToken = "user-token"

// resetFlags restores every flag of cmd and its subcommands to its default,
// since rootCmd is shared between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs rootCmd with args and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func twinSeed() graphtwin.Seed {
	return graphtwin.Seed{
		UserToken: userToken,
		UserID:    "u1",
		UserName:  "Tap User",
		Pages: []graphtwin.Page{
			{
				ID:          "100",
				Name:        "Acme",
				AccessToken: "page-token-100",
				Fields:      map[string]any{"fan_count": 42},
				Posts: []graphtwin.Post{
					{ID: "100_1", CreatedTime: "2021-01-15T10:00:00+0000", Message: "first"},
					{ID: "100_2", CreatedTime: "2021-05-20T12:30:00+0000", Message: "second"},
				},
				Insights: []graphtwin.Insight{
					{Name: "page_fans", Period: "lifetime", Title: "Fans", Values: []graphtwin.InsightValue{
						{Value: 40, EndTime: "2021-02-01T08:00:00+0000"},
						{Value: 42, EndTime: "2021-03-01T08:00:00+0000"},
					}},
				},
			},
		},
	}
}

// writeConfig starts a Graph twin and writes a config pointing at it with a
// sqlite state backend in a temp dir.
func writeConfig(t *testing.T) (string, *graphtwin.Store) {
	t.Helper()

	store := graphtwin.NewStore(twinSeed())
	srv := httptest.NewServer(graphtwin.New(store, nil))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := map[string]any{
		"access_token":        userToken,
		"page_ids":            []string{"100"},
		"start_date":          "2021-01-01T00:00:00Z",
		"end_date":            "2021-06-30T00:00:00Z",
		"base_url":            srv.URL,
		"requests_per_second": 1000,
		"state_backend":       "sqlite",
		"state_dir":           filepath.Join(dir, "state"),
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path, store
}

type message struct {
	Type   string         `json:"type"`
	Stream string         `json:"stream"`
	Record map[string]any `json:"record"`
	Value  map[string]any `json:"value"`
}

func parseMessages(t *testing.T, out string) []message {
	t.Helper()
	var msgs []message
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var m message
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		msgs = append(msgs, m)
	}
	return msgs
}

func countRecords(msgs []message, stream string) int {
	n := 0
	for _, m := range msgs {
		if m.Type == "RECORD" && m.Stream == stream {
			n++
		}
	}
	return n
}
