package facebook

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// field is one schema property.
type field struct {
	name   string
	schema *jsonschema.Schema
}

func nullable(typ string) *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{typ, "null"}}
}

func timestamp() *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"string", "null"}, Format: "date-time"}
}

func object() *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"object", "null"}}
}

func array() *jsonschema.Schema {
	return &jsonschema.Schema{Types: []string{"array", "null"}}
}

// anyValue accepts any JSON value. Insight values are numbers or, for
// breakdown metrics flattened by context, numbers or nested objects.
func anyValue() *jsonschema.Schema {
	return &jsonschema.Schema{}
}

// pageFields are requested from /{page_id} unless columns are configured.
var pageFields = []field{
	{"id", nullable("string")},
	{"name", nullable("string")},
	{"username", nullable("string")},
	{"about", nullable("string")},
	{"category", nullable("string")},
	{"category_list", array()},
	{"description", nullable("string")},
	{"emails", array()},
	{"fan_count", nullable("integer")},
	{"followers_count", nullable("integer")},
	{"checkins", nullable("integer")},
	{"talking_about_count", nullable("integer")},
	{"were_here_count", nullable("integer")},
	{"link", nullable("string")},
	{"website", nullable("string")},
	{"phone", nullable("string")},
	{"is_published", nullable("boolean")},
	{"verification_status", nullable("string")},
	{"location", object()},
	{"cover", object()},
}

// postFields are requested from /{page_id}/posts unless columns are configured.
var postFields = []field{
	{"id", nullable("string")},
	{"created_time", timestamp()},
	{"updated_time", timestamp()},
	{"message", nullable("string")},
	{"story", nullable("string")},
	{"permalink_url", nullable("string")},
	{"status_type", nullable("string")},
	{"full_picture", nullable("string")},
	{"is_published", nullable("boolean")},
	{"is_hidden", nullable("boolean")},
	{"is_expired", nullable("boolean")},
	{"is_popular", nullable("boolean")},
	{"is_instagram_eligible", nullable("boolean")},
	{"promotable_id", nullable("string")},
	{"from", object()},
	{"shares", object()},
	{"privacy", object()},
	{"place", object()},
	{"message_tags", array()},
}

// parentFields are carried by records derived from a post.
var parentFields = []field{
	{"page_id", nullable("string")},
	{"post_id", nullable("string")},
	{"post_created_time", timestamp()},
}

var attachmentFields = []field{
	{"title", nullable("string")},
	{"description", nullable("string")},
	{"type", nullable("string")},
	{"media_type", nullable("string")},
	{"url", nullable("string")},
	{"unshimmed_url", nullable("string")},
	{"media", object()},
	{"target", object()},
	{"description_tags", array()},
}

var taggedProfileFields = []field{
	{"id", nullable("string")},
	{"name", nullable("string")},
	{"username", nullable("string")},
	{"profile_type", nullable("string")},
}

var insightFields = []field{
	{"id", nullable("string")},
	{"name", nullable("string")},
	{"period", nullable("string")},
	{"title", nullable("string")},
	{"description", nullable("string")},
	{"value", anyValue()},
	{"end_time", timestamp()},
	{"context", nullable("string")},
}

// fieldNames returns the property names in declaration order.
func fieldNames(fields []field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.name)
	}
	return names
}

// buildSchema returns the JSON schema of an object with the given fields.
func buildSchema(groups ...[]field) json.RawMessage {
	s := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema),
	}
	for _, fields := range groups {
		for _, f := range fields {
			s.Properties[f.name] = f.schema
		}
	}
	data, err := json.Marshal(s)
	if err != nil {
		panic("facebook: marshal schema: " + err.Error())
	}
	return data
}
