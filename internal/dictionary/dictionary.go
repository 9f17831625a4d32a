// Package dictionary queries the public Free Dictionary API.
package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public dictionary endpoint.
const DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2"

// ErrNotFound is returned when the dictionary has no meanings for a term.
var ErrNotFound = errors.New("dictionary: no definitions found")

// Definition is one sense of a word, flattened out of its meaning.
type Definition struct {
	PartOfSpeech string `json:"partOfSpeech"`
	Definition   string `json:"definition"`
	Example      string `json:"example,omitempty"`
}

type entry struct {
	Meanings []meaning `json:"meanings"`
}

type meaning struct {
	PartOfSpeech string `json:"partOfSpeech"`
	Definitions  []struct {
		Definition string `json:"definition"`
		Example    string `json:"example"`
	} `json:"definitions"`
}

// Client is a dictionary service client.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client. An empty baseURL selects DefaultBaseURL and a nil
// http client gets a 15 second timeout.
func New(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Lookup returns every definition across the meanings of the first entry
// for term, in response order.
func (c *Client) Lookup(ctx context.Context, term string) ([]Definition, error) {
	endpoint := c.baseURL + "/entries/en/" + url.PathEscape(term)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating dictionary request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dictionary request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading dictionary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictionary returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var entries []entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding dictionary response: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	var defs []Definition
	for _, m := range entries[0].Meanings {
		for _, d := range m.Definitions {
			if strings.TrimSpace(d.Definition) == "" {
				continue
			}
			defs = append(defs, Definition{
				PartOfSpeech: m.PartOfSpeech,
				Definition:   d.Definition,
				Example:      d.Example,
			})
		}
	}
	if len(defs) == 0 {
		return nil, ErrNotFound
	}
	return defs, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
