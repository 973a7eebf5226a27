package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dafterai/dafter/internal/document"
)

const (
	// URIScheme is the custom URI scheme for dafter resources.
	uriScheme = "dafter://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "document",
		Name:        "document",
		Description: "The notebook file being edited",
		MIMEType:    "application/yaml",
	}, s.handleDocumentResource)
}

// handleDocumentResource returns the document as YAML.
func (s *Server) handleDocumentResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	if err := document.Encode(&b, doc); err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/yaml",
			Text:     b.String(),
		}},
	}, nil
}
