package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

var postsStream = domain.Stream{
	Name: "posts",
	Schema: json.RawMessage(`{
		"type": "object",
		"properties": {
			"id": {"type": ["string", "null"]},
			"shares": {"type": ["integer", "null"]},
			"is_hidden": {"type": ["boolean", "null"]}
		}
	}`),
}

func TestValidator_Valid(t *testing.T) {
	v := NewValidator()

	err := v.Validate(postsStream, domain.Record{"id": "1_1", "shares": float64(3), "is_hidden": nil})

	assert.NoError(t, err)
}

func TestValidator_Invalid(t *testing.T) {
	v := NewValidator()

	err := v.Validate(postsStream, domain.Record{"id": "1_1", "shares": "three"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaValidation)
	assert.Contains(t, err.Error(), "posts")
}

func TestValidator_CachesResolvedSchema(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(postsStream, domain.Record{"id": "1"}))
	require.NoError(t, v.Validate(postsStream, domain.Record{"id": "2"}))

	assert.Len(t, v.resolved, 1)
}

func TestValidator_NoSchema(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(domain.Stream{Name: "page"}, domain.Record{"anything": 1}))
}

func TestValidator_BadSchema(t *testing.T) {
	v := NewValidator()

	err := v.Validate(domain.Stream{Name: "page", Schema: json.RawMessage(`{"type": 5}`)}, domain.Record{})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSchemaValidation)
}
