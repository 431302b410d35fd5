package driven

import (
	"time"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// RecordWriter emits extraction output.
type RecordWriter interface {
	// WriteSchema announces a stream before its records.
	WriteSchema(stream domain.Stream) error

	// WriteRecord emits one record of a stream.
	WriteRecord(stream string, record domain.Record, extractedAt time.Time) error

	// WriteState emits a state checkpoint.
	WriteState(state *domain.State) error

	// Flush writes any buffered output.
	Flush() error
}

// RecordValidator checks records against their stream schema.
type RecordValidator interface {
	// Validate returns an error wrapping domain.ErrSchemaValidation when
	// the record does not match the stream schema.
	Validate(stream domain.Stream, record domain.Record) error
}
