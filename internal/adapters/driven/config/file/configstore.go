package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// EnvPrefix prefixes environment variables that override config keys,
// e.g. TAP_FACEBOOK_PAGES_ACCESS_TOKEN.
const EnvPrefix = "TAP_FACEBOOK_PAGES_"

// Supported file formats, chosen by extension.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// ConfigStore is a file-based implementation of driven.ConfigStore.
// JSON, TOML and YAML files are supported.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	lookup   func(string) (string, bool)
}

// NewConfigStore creates a config store for the file at path.
// If path is empty, defaults to ~/.tap-facebook-pages/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".tap-facebook-pages", "config.toml")
	}
	return &ConfigStore{filePath: path, lookup: os.LookupEnv}, nil
}

// Format returns the file format for path, defaulting to JSON.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads the configuration, applies environment overrides and defaults,
// and validates it. A missing file is allowed when the environment supplies
// every required key.
func (s *ConfigStore) Load() (*domain.TapConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg := &domain.TapConfig{}
	data, err := os.ReadFile(s.filePath)
	switch {
	case err == nil:
		if err := decode(Format(s.filePath), data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, s.filePath, err)
		}
	case os.IsNotExist(err):
		// Environment only.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := applyEnv(cfg, s.lookup); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg in the format given by the file extension.
func (s *ConfigStore) Save(cfg *domain.TapConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encode(Format(s.filePath), cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

func decode(format string, data []byte, v any) error {
	switch format {
	case FormatTOML:
		return toml.Unmarshal(data, v)
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	default:
		return json.Unmarshal(data, v)
	}
}

func encode(format string, v any) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(v)
	case FormatYAML:
		return yaml.Marshal(v)
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// envSetters map config keys to their override.
var envSetters = map[string]func(*domain.TapConfig, string) error{
	"access_token":    func(c *domain.TapConfig, v string) error { c.AccessToken = v; return nil },
	"page_ids":        func(c *domain.TapConfig, v string) error { c.PageIDs = splitList(v); return nil },
	"start_date":      func(c *domain.TapConfig, v string) error { c.StartDate = v; return nil },
	"end_date":        func(c *domain.TapConfig, v string) error { c.EndDate = v; return nil },
	"columns":         func(c *domain.TapConfig, v string) error { c.Columns = splitList(v); return nil },
	"api_version":     func(c *domain.TapConfig, v string) error { c.APIVersion = v; return nil },
	"base_url":        func(c *domain.TapConfig, v string) error { c.BaseURL = v; return nil },
	"token_mode":      func(c *domain.TapConfig, v string) error { c.TokenMode = v; return nil },
	"insights_period": func(c *domain.TapConfig, v string) error { c.InsightsPeriod = v; return nil },
	"state_backend":   func(c *domain.TapConfig, v string) error { c.StateBackend = v; return nil },
	"state_dir":       func(c *domain.TapConfig, v string) error { c.StateDir = v; return nil },
	"state_dsn":       func(c *domain.TapConfig, v string) error { c.StateDSN = v; return nil },
	"window_days": func(c *domain.TapConfig, v string) error {
		n, err := strconv.Atoi(v)
		c.WindowDays = n
		return err
	},
	"max_retries": func(c *domain.TapConfig, v string) error {
		n, err := strconv.Atoi(v)
		c.MaxRetries = n
		return err
	},
	"requests_per_second": func(c *domain.TapConfig, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.RequestsPerSecond = f
		return err
	},
}

// EnvKeys returns the config keys that can be overridden from the environment.
func EnvKeys() []string {
	keys := make([]string, 0, len(envSetters))
	for k := range envSetters {
		keys = append(keys, k)
	}
	return keys
}

func applyEnv(cfg *domain.TapConfig, lookup func(string) (string, bool)) error {
	for key, set := range envSetters {
		name := EnvPrefix + strings.ToUpper(key)
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidConfig, name, err)
		}
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
