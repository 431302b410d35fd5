// Package singer writes Singer protocol messages as JSON lines.
package singer

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.RecordWriter = (*Writer)(nil)

// Message types.
const (
	TypeSchema = "SCHEMA"
	TypeRecord = "RECORD"
	TypeState  = "STATE"
)

type schemaMessage struct {
	Type               string          `json:"type"`
	Stream             string          `json:"stream"`
	Schema             json.RawMessage `json:"schema"`
	KeyProperties      []string        `json:"key_properties"`
	BookmarkProperties []string        `json:"bookmark_properties,omitempty"`
}

type recordMessage struct {
	Type          string        `json:"type"`
	Stream        string        `json:"stream"`
	Record        domain.Record `json:"record"`
	TimeExtracted string        `json:"time_extracted,omitempty"`
}

type stateMessage struct {
	Type  string        `json:"type"`
	Value *domain.State `json:"value"`
}

// Writer emits one JSON object per line. Safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	buf *bufio.Writer
	enc *json.Encoder
}

// NewWriter creates a writer on w, normally os.Stdout.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{buf: buf, enc: enc}
}

// WriteSchema emits a SCHEMA message.
func (w *Writer) WriteSchema(stream domain.Stream) error {
	keys := stream.KeyProperties
	if keys == nil {
		keys = []string{}
	}
	msg := schemaMessage{
		Type:          TypeSchema,
		Stream:        stream.Name,
		Schema:        stream.Schema,
		KeyProperties: keys,
	}
	if stream.ReplicationKey != "" {
		msg.BookmarkProperties = []string{stream.ReplicationKey}
	}
	return w.write(msg)
}

// WriteRecord emits a RECORD message. A zero extractedAt omits time_extracted.
func (w *Writer) WriteRecord(stream string, record domain.Record, extractedAt time.Time) error {
	msg := recordMessage{Type: TypeRecord, Stream: stream, Record: record}
	if !extractedAt.IsZero() {
		msg.TimeExtracted = extractedAt.UTC().Format(time.RFC3339Nano)
	}
	return w.write(msg)
}

// WriteState emits a STATE message and flushes, so that a downstream target
// never sees a state before the records it covers.
func (w *Writer) WriteState(state *domain.State) error {
	if state == nil {
		state = domain.NewState()
	}
	if err := w.write(stateMessage{Type: TypeState, Value: state}); err != nil {
		return err
	}
	return w.Flush()
}

// Flush writes buffered messages.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func (w *Writer) write(msg any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}
