package domain

import "time"

// GraphTimeLayout is the timestamp layout the Graph API uses in responses,
// e.g. "2021-03-04T08:00:00+0000".
const GraphTimeLayout = "2006-01-02T15:04:05-0700"

// Record is one flat JSON object emitted on a stream.
type Record map[string]any

// String returns the value at key if it is a string.
func (r Record) String(key string) (string, bool) {
	v, ok := r[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Time parses the value at key as a timestamp.
// Both the Graph layout and RFC 3339 are accepted.
func (r Record) Time(key string) (time.Time, bool) {
	s, ok := r.String(key)
	if !ok || s == "" {
		return time.Time{}, false
	}
	return ParseTime(s)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ParseTime parses a timestamp in any of the layouts seen in Graph
// responses, state files and configuration.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range []string{GraphTimeLayout, time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
