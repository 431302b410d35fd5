package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

func TestStateCmd_ShowAndReset(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, _, err := execute(t, "", "sync", "-c", cfg, "posts", "page_insight_demographics")
	require.NoError(t, err)

	out, _, err := execute(t, "", "state", "show", "-c", cfg)
	require.NoError(t, err)
	state, err := domain.ParseState([]byte(out))
	require.NoError(t, err)
	_, ok := state.Bookmark("posts", "100")
	assert.True(t, ok)
	b, ok := state.Bookmark("page_insight_demographics", "100")
	require.True(t, ok)
	assert.Equal(t, "end_time", b.ReplicationKey)

	out, _, err = execute(t, "", "state", "reset", "posts", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Bookmarks of posts removed.")

	out, _, err = execute(t, "", "state", "show", "-c", cfg)
	require.NoError(t, err)
	state, err = domain.ParseState([]byte(out))
	require.NoError(t, err)
	_, ok = state.Bookmark("posts", "100")
	assert.False(t, ok)

	out, _, err = execute(t, "", "state", "reset", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "All bookmarks removed.")
}

func TestStateCmd_ResetUnknownStream(t *testing.T) {
	cfg, _ := writeConfig(t)

	_, _, err := execute(t, "", "state", "reset", "videos", "-c", cfg)

	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
}

func TestStateCmd_RunsEmpty(t *testing.T) {
	cfg, _ := writeConfig(t)

	out, _, err := execute(t, "", "state", "runs", "-c", cfg)

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}
