package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/highlight"
	"github.com/ziadkadry99/lexhover/internal/messaging"
	"github.com/ziadkadry99/lexhover/internal/resolver"
	"github.com/ziadkadry99/lexhover/internal/scanner"
	"github.com/ziadkadry99/lexhover/internal/tooltip"
)

// handleDefineLegalTerm resolves a term through the definition channel.
func (s *Server) handleDefineLegalTerm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term, err := request.RequireString("term")
	if err != nil || strings.TrimSpace(term) == "" {
		return mcp.NewToolResultError("missing required parameter: term"), nil
	}

	key := glossary.Normalize(term)
	localDef, _ := s.glossary.Current().Lookup(key)

	resp, err := s.client.Send(ctx, messaging.Request{
		Action:   messaging.ActionGetDefinition,
		Term:     key,
		LocalDef: localDef,
	})
	if err != nil {
		s.logger.Warn("definition request failed", zap.String("term", key), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("definition request failed: %v", err)), nil
	}
	if resp.Error != "" {
		return mcp.NewToolResultError(resp.Error), nil
	}

	return mcp.NewToolResultText(formatDefinition(term, resp.Definition, resp.Source)), nil
}

// handleHighlightLegalTerms scans text for glossary terms and citations.
func (s *Server) handleHighlightLegalTerms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	detector := scanner.NewDetector(s.glossary.Current())

	if request.GetString("format", "terms") == "html" {
		doc, err := highlight.ParseString(text, highlight.New(detector, s.logger))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse input: %v", err)), nil
		}
		doc.Scan()
		return mcp.NewToolResultText(doc.String()), nil
	}

	terms := scanner.Terms(detector.Scan(text))
	if len(terms) == 0 {
		return mcp.NewToolResultText("No legal terms found."), nil
	}
	return mcp.NewToolResultText(formatTerms(terms)), nil
}

// handleLookupGlossary answers from the local glossary without any network call.
func (s *Server) handleLookupGlossary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	term, err := request.RequireString("term")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: term"), nil
	}

	def, ok := s.glossary.Current().Lookup(term)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("%q is not in the local glossary.", term)), nil
	}
	return mcp.NewToolResultText(formatDefinition(term, def, resolver.SourceLocal)), nil
}

func formatDefinition(term, definition string, source resolver.Source) string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(term))
	sb.WriteString("\n\n")
	sb.WriteString(definition)
	sb.WriteString("\n")
	if label := tooltip.Label(source); label != "" {
		sb.WriteString(fmt.Sprintf("\nSource: %s\n", label))
	}
	return sb.String()
}

func formatTerms(terms []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d legal term(s):\n", len(terms)))
	for _, t := range terms {
		sb.WriteString("- ")
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String()
}
