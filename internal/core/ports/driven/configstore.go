package driven

import "github.com/custodia-labs/tap-facebook-pages/internal/core/domain"

// ConfigStore loads and persists the tap configuration.
// Implementations handle the file format and environment overrides.
type ConfigStore interface {
	// Load reads, applies defaults to and validates the configuration.
	Load() (*domain.TapConfig, error)

	// Save writes the configuration to storage.
	Save(cfg *domain.TapConfig) error

	// Path returns the configuration file path.
	Path() string
}
