// Package mcp exposes a notebook file to AI assistants over the Model
// Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dafterai/dafter/internal/document"
	"github.com/dafterai/dafter/pkg/api"
)

// Version is the MCP server version.
const Version = "0.1.0"

// ErrMissingDocument is returned when no document path is provided.
var ErrMissingDocument = errors.New("mcp: document path is required")

// Server serves tools over one document file.
type Server struct {
	path   string
	editor *api.Editor
	server *mcp.Server

	// mu serialises load-modify-save cycles on the file
	mu sync.Mutex
}

// NewServer creates an MCP server for the document at path.
func NewServer(path string, editor *api.Editor) (*Server, error) {
	if path == "" {
		return nil, ErrMissingDocument
	}
	if editor == nil {
		editor = api.New()
	}

	impl := &mcp.Implementation{
		Name:    "dafter",
		Version: Version,
	}

	s := &Server{
		path:   path,
		editor: editor,
		server: mcp.NewServer(impl, nil),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) load() (document.Document, error) {
	doc, err := document.Load(s.path)
	if err != nil {
		return document.Document{}, fmt.Errorf("loading document: %w", err)
	}
	return doc, nil
}

// update loads the document, applies fn and saves the result.
func (s *Server) update(fn func(document.Document) (document.Document, error)) (document.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return doc, err
	}
	next, err := fn(doc)
	if err != nil {
		return doc, err
	}
	if err := document.Save(s.path, next); err != nil {
		return doc, fmt.Errorf("saving document: %w", err)
	}
	return next, nil
}
