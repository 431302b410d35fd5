package mcp

import (
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Catalog exposes streams and the Singer catalog.
	Catalog driving.CatalogService

	// State exposes bookmarks and run history. Optional.
	State driving.StateService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Catalog == nil {
		return ErrMissingCatalogService
	}
	return nil
}
