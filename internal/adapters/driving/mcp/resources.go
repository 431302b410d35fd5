package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for tap resources.
	uriScheme = "fbpages://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "catalog",
		Name:        "catalog",
		Description: "Singer catalog of every stream",
		MIMEType:    "application/json",
	}, s.handleCatalogResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "state",
		Name:        "state",
		Description: "Singer state document built from stored bookmarks",
		MIMEType:    "application/json",
	}, s.handleStateResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "streams/{stream}/schema",
		Name:        "stream-schema",
		Description: "JSON schema of one stream",
		MIMEType:    "application/json",
	}, s.handleSchemaResource)
}

func (s *Server) handleCatalogResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.ports.Catalog.Discover(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling catalog: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func (s *Server) handleStateResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.State == nil {
		return jsonResult(req.Params.URI, []byte(`{"bookmarks":{}}`)), nil
	}

	state, err := s.ports.State.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling state: %w", err)
	}
	return jsonResult(req.Params.URI, data), nil
}

func (s *Server) handleSchemaResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractStreamName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	st, err := s.ports.Catalog.Stream(name)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResult(req.Params.URI, st.Schema), nil
}

func jsonResult(uri string, data []byte) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}
}

// extractStreamName extracts the stream from a URI like fbpages://streams/{stream}/schema.
func extractStreamName(uri string) string {
	const prefix = uriScheme + "streams/"
	const suffix = "/schema"

	if len(uri) <= len(prefix)+len(suffix) ||
		!strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	name := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(name, "/") {
		return ""
	}
	return name
}
