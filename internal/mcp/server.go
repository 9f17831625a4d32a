package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/messaging"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes legal term tools.
type Server struct {
	client   messaging.Client
	glossary *glossary.Holder
	logger   *zap.Logger
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server. Definitions are requested through
// client exactly as a page would request them.
func NewServer(client messaging.Client, holder *glossary.Holder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		client:   client,
		glossary: holder,
		logger:   logger,
	}

	s.mcp = server.NewMCPServer(
		"lexhover",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(defineLegalTermTool, s.handleDefineLegalTerm)
	s.mcp.AddTool(highlightLegalTermsTool, s.handleHighlightLegalTerms)
	s.mcp.AddTool(lookupGlossaryTool, s.handleLookupGlossary)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
