package resolver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/lexhover/internal/dictionary"
	"github.com/ziadkadry99/lexhover/internal/search"
)

const selectSystemPrompt = "You are a legal terminology expert who provides concise, accurate definitions."

const synthesizeSystemPrompt = "You are a legal expert who provides clear, concise definitions."

func selectPrompt(term string, defs []dictionary.Definition) string {
	listing, err := json.MarshalIndent(defs, "", "  ")
	if err != nil {
		listing = []byte("[]")
	}
	return fmt.Sprintf(`You are a legal terminology expert. Given the word %q and the following definitions from a dictionary:

%s

Task: Identify which definition is most relevant for LEGAL context. Return ONLY the most appropriate legal definition in simple, clear language (maximum 2 sentences). If it's primarily a legal term, return the legal definition. If none are legal, return the most formal/official definition.

Your response should be the definition text only, no additional commentary.`, term, listing)
}

func synthesizePrompt(term string, results []search.Result) string {
	snippets := make([]string, len(results))
	for i, r := range results {
		snippets[i] = fmt.Sprintf("Result %d: %s", i+1, r.Content)
	}
	return fmt.Sprintf(`Based on these search results about the legal term %q:

%s

Provide a clear, concise legal definition in 1-2 sentences that captures the essential meaning.`, term, strings.Join(snippets, "\n\n"))
}
