package walker

import (
	"path/filepath"
	"strings"
)

// Kind is the page format of a file.
type Kind string

const (
	KindHTML     Kind = "html"
	KindMarkdown Kind = "markdown"
	KindUnknown  Kind = ""
)

var extensionToKind = map[string]Kind{
	".html":     KindHTML,
	".htm":      KindHTML,
	".xhtml":    KindHTML,
	".md":       KindMarkdown,
	".markdown": KindMarkdown,
}

// DetectKind returns the page format for filename based on its extension.
func DetectKind(filename string) Kind {
	return extensionToKind[strings.ToLower(filepath.Ext(filename))]
}
