// Package mcp provides an MCP (Model Context Protocol) server adapter for the tap.
// It lets AI assistants inspect the stream catalog, bookmarks and run history.
package mcp

import "errors"

// ErrMissingCatalogService is returned when the catalog service is not provided.
var ErrMissingCatalogService = errors.New("mcp: catalog service is required")
