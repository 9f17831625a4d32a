package mcp

import "github.com/mark3labs/mcp-go/mcp"

// defineLegalTermTool defines the define_legal_term MCP tool.
var defineLegalTermTool = mcp.NewTool("define_legal_term",
	mcp.WithDescription("Define a legal term or statute citation. Checks the local glossary first, then a dictionary, then web search."),
	mcp.WithString("term",
		mcp.Required(),
		mcp.Description("The term or citation, e.g. \"habeas corpus\" or \"IPC 420\""),
	),
)

// highlightLegalTermsTool defines the highlight_legal_terms MCP tool.
var highlightLegalTermsTool = mcp.NewTool("highlight_legal_terms",
	mcp.WithDescription("Find legal terms and statute citations in a piece of text or HTML."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Plain text, Markdown, or HTML to scan"),
	),
	mcp.WithString("format",
		mcp.Description("What to return (default terms)"),
		mcp.Enum("terms", "html"),
	),
)

// lookupGlossaryTool defines the lookup_glossary MCP tool.
var lookupGlossaryTool = mcp.NewTool("lookup_glossary",
	mcp.WithDescription("Look up a term in the local legal glossary only. No network calls are made."),
	mcp.WithString("term",
		mcp.Required(),
		mcp.Description("Term to look up"),
	),
)
