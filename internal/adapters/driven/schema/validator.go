// Package schema validates records against their stream JSON schema.
package schema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// Ensure Validator implements the interface.
var _ driven.RecordValidator = (*Validator)(nil)

// Validator resolves each stream schema once and validates records with it.
type Validator struct {
	mu       sync.Mutex
	resolved map[string]*jsonschema.Resolved
}

// NewValidator creates a validator with an empty schema cache.
func NewValidator() *Validator {
	return &Validator{resolved: make(map[string]*jsonschema.Resolved)}
}

// Validate checks record against stream.Schema. A stream without a schema
// accepts every record.
func (v *Validator) Validate(stream domain.Stream, record domain.Record) error {
	if len(stream.Schema) == 0 {
		return nil
	}
	rs, err := v.resolve(stream)
	if err != nil {
		return err
	}
	if err := rs.Validate(map[string]any(record)); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrSchemaValidation, stream.Name, err)
	}
	return nil
}

func (v *Validator) resolve(stream domain.Stream) (*jsonschema.Resolved, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if rs, ok := v.resolved[stream.Name]; ok {
		return rs, nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(stream.Schema, &s); err != nil {
		return nil, fmt.Errorf("parse schema of %s: %w", stream.Name, err)
	}
	rs, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve schema of %s: %w", stream.Name, err)
	}
	v.resolved[stream.Name] = rs
	return rs, nil
}
