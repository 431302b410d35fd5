package graphtwin

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed is the fixture a twin serves.
type Seed struct {
	UserToken string `json:"user_token" yaml:"user_token"`
	UserID    string `json:"user_id" yaml:"user_id"`
	UserName  string `json:"user_name" yaml:"user_name"`
	Pages     []Page `json:"pages" yaml:"pages"`
}

// Page is a seeded page node.
type Page struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	AccessToken string         `json:"access_token" yaml:"access_token"`
	Fields      map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
	Posts       []Post         `json:"posts,omitempty" yaml:"posts,omitempty"`
	Insights    []Insight      `json:"insights,omitempty" yaml:"insights,omitempty"`

	// Forbidden makes every request on the page fail with a permission error.
	Forbidden bool `json:"forbidden,omitempty" yaml:"forbidden,omitempty"`

	// Hidden leaves the page out of /me/accounts.
	Hidden bool `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Post is a seeded post of a page.
type Post struct {
	ID          string           `json:"id" yaml:"id"`
	CreatedTime string           `json:"created_time" yaml:"created_time"`
	Message     string           `json:"message,omitempty" yaml:"message,omitempty"`
	Fields      map[string]any   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Attachments []map[string]any `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	To          []map[string]any `json:"to,omitempty" yaml:"to,omitempty"`
	Insights    []Insight        `json:"insights,omitempty" yaml:"insights,omitempty"`
}

// Insight is a seeded metric with its values.
type Insight struct {
	Name        string         `json:"name" yaml:"name"`
	Period      string         `json:"period" yaml:"period"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Values      []InsightValue `json:"values" yaml:"values"`
}

// InsightValue is one data point of a metric. Value is a number or, for
// breakdown metrics, an object keyed by breakdown.
type InsightValue struct {
	Value   any    `json:"value" yaml:"value"`
	EndTime string `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// RequestLogEntry records one request served by the twin.
type RequestLogEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Query      map[string]string `json:"query,omitempty"`
	Token      string            `json:"token,omitempty"`
	StatusCode int               `json:"status_code"`
}

// Faults configures injected failures.
type Faults struct {
	// MaxWindow rejects since/until ranges wider than this with the
	// too-much-data error. Zero disables the check.
	MaxWindow time.Duration `json:"max_window,omitempty"`

	// MaxLimit rejects page sizes above this with the too-much-data error.
	// Zero disables the check.
	MaxLimit int `json:"max_limit,omitempty"`

	// AlwaysTooMuchData fails every windowed request with too-much-data.
	AlwaysTooMuchData bool `json:"always_too_much_data,omitempty"`

	// ServerErrorPaths fail with a 500 whose path contains any entry.
	ServerErrorPaths []string `json:"server_error_paths,omitempty"`

	// RevokedTokens are rejected with an expired session error.
	RevokedTokens []string `json:"revoked_tokens,omitempty"`
}

// Store holds the twin state.
type Store struct {
	mu       sync.RWMutex
	seed     Seed
	faults   Faults
	requests []RequestLogEntry
}

// NewStore creates a store serving seed.
func NewStore(seed Seed) *Store {
	return &Store{seed: seed}
}

// LoadSeed decodes a seed from YAML or JSON, chosen by the file extension
// of name.
func LoadSeed(name string, data []byte) (Seed, error) {
	var seed Seed
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return Seed{}, fmt.Errorf("parse seed %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, &seed); err != nil {
			return Seed{}, fmt.Errorf("parse seed %s: %w", name, err)
		}
	}
	return seed, nil
}

// SetFaults replaces the injected failures.
func (s *Store) SetFaults(f Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = f
}

// Faults returns the injected failures.
func (s *Store) Faults() Faults {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faults
}

// Page returns a seeded page by id.
func (s *Store) Page(id string) (Page, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.seed.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// Pages returns every seeded page.
func (s *Store) Pages() []Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Page(nil), s.seed.Pages...)
}

// User returns the user token and identity.
func (s *Store) User() (token, id, name string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seed.UserToken, s.seed.UserID, s.seed.UserName
}

// KnownToken reports whether token is the user token or any page token.
func (s *Store) KnownToken(token string) bool {
	if token == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == s.seed.UserToken {
		return true
	}
	for _, p := range s.seed.Pages {
		if p.AccessToken == token {
			return true
		}
	}
	return false
}

// Record appends a request log entry.
func (s *Store) Record(entry RequestLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, entry)
}

// Requests returns a copy of the request log.
func (s *Store) Requests() []RequestLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RequestLogEntry(nil), s.requests...)
}

// RequestsTo returns the logged requests whose path ends with suffix.
func (s *Store) RequestsTo(suffix string) []RequestLogEntry {
	var out []RequestLogEntry
	for _, r := range s.Requests() {
		if strings.HasSuffix(r.Path, suffix) {
			out = append(out, r)
		}
	}
	return out
}

// Reset clears the request log and faults.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.faults = Faults{}
}
