package singer

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var msgs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		msgs = append(msgs, m)
	}
	return msgs
}

func TestWriter_Messages(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	stream := domain.Stream{
		Name:           "posts",
		KeyProperties:  []string{"id"},
		ReplicationKey: "created_time",
		Schema:         json.RawMessage(`{"type":"object"}`),
	}
	extracted := time.Date(2021, 3, 4, 8, 0, 0, 0, time.UTC)
	state := domain.NewState()
	state.SetBookmark(domain.Bookmark{Stream: "posts", PartitionID: "1", ReplicationKey: "created_time", Value: extracted})

	require.NoError(t, w.WriteSchema(stream))
	require.NoError(t, w.WriteRecord("posts", domain.Record{"id": "1_1", "message": "a<b"}, extracted))
	require.NoError(t, w.WriteState(state))

	msgs := decodeLines(t, out.String())
	require.Len(t, msgs, 3)

	assert.Equal(t, "SCHEMA", msgs[0]["type"])
	assert.Equal(t, "posts", msgs[0]["stream"])
	assert.Equal(t, []any{"id"}, msgs[0]["key_properties"])
	assert.Equal(t, []any{"created_time"}, msgs[0]["bookmark_properties"])

	assert.Equal(t, "RECORD", msgs[1]["type"])
	assert.Equal(t, "2021-03-04T08:00:00Z", msgs[1]["time_extracted"])
	assert.Equal(t, map[string]any{"id": "1_1", "message": "a<b"}, msgs[1]["record"])
	assert.Contains(t, out.String(), `"a<b"`)

	assert.Equal(t, "STATE", msgs[2]["type"])
	value := msgs[2]["value"].(map[string]any)
	assert.Contains(t, value["bookmarks"], "posts")
}

func TestWriter_SchemaWithoutKeys(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.WriteSchema(domain.Stream{Name: "page", Schema: json.RawMessage(`{}`)}))
	require.NoError(t, w.Flush())

	msgs := decodeLines(t, out.String())
	assert.Equal(t, []any{}, msgs[0]["key_properties"])
	assert.NotContains(t, msgs[0], "bookmark_properties")
}

func TestWriter_RecordWithoutExtractedTime(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.WriteRecord("page", domain.Record{"id": "1"}, time.Time{}))
	require.NoError(t, w.Flush())

	assert.NotContains(t, out.String(), "time_extracted")
}

func TestWriter_BuffersUntilState(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)

	require.NoError(t, w.WriteRecord("page", domain.Record{"id": "1"}, time.Time{}))
	assert.Zero(t, out.Len())

	require.NoError(t, w.WriteState(nil))
	msgs := decodeLines(t, out.String())
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"bookmarks": map[string]any{}}, msgs[1]["value"])
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWriter_FlushError(t *testing.T) {
	w := NewWriter(failingWriter{})

	require.NoError(t, w.WriteRecord("page", domain.Record{"id": "1"}, time.Time{}))
	err := w.Flush()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed pipe")
}
