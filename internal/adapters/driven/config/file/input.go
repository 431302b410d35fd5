package file

import (
	"fmt"
	"os"

	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
)

// LoadState reads a Singer state file. An empty path yields an empty state.
func LoadState(path string) (*domain.State, error) {
	if path == "" {
		return domain.NewState(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return domain.ParseState(data)
}

// LoadCatalog reads a Singer catalog file. An empty path yields nil,
// which selects every stream.
func LoadCatalog(path string) (*domain.Catalog, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return domain.ParseCatalog(data)
}
