package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/lexhover/internal/config"
	"github.com/ziadkadry99/lexhover/internal/fetch"
	"github.com/ziadkadry99/lexhover/internal/glossary"
	"github.com/ziadkadry99/lexhover/internal/highlight"
	"github.com/ziadkadry99/lexhover/internal/page"
	"github.com/ziadkadry99/lexhover/internal/progress"
	"github.com/ziadkadry99/lexhover/internal/scanner"
	"github.com/ziadkadry99/lexhover/internal/tooltip"
	"github.com/ziadkadry99/lexhover/internal/walker"
)

var (
	highlightOut      string
	highlightStdout   bool
	highlightBrowser  bool
	highlightPrefetch bool
)

var highlightCmd = &cobra.Command{
	Use:   "highlight <file|dir|glob|url>...",
	Short: "Highlight legal terms in pages and documents",
	Long: `Highlights legal terms and statute citations in HTML and Markdown files,
directories, glob patterns, or web pages. Results are written under the
output directory with the marker spans and tooltip element in place.

With --prefetch, definitions are resolved ahead of time and stored on the
markers so the output needs no service to show them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg
		ctx := cmd.Context()
		if highlightOut != "" {
			cfg.Highlight.OutputDir = highlightOut
		}

		targets, err := expandTargets(args, cfg.Highlight)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return fmt.Errorf("no pages matched %s", strings.Join(args, " "))
		}
		if highlightStdout && len(targets) != 1 {
			return fmt.Errorf("--stdout needs exactly one page, got %d", len(targets))
		}

		g, err := loadGlossary(cfg)
		if err != nil {
			return err
		}
		h := highlight.New(scanner.NewDetector(g), logger)

		var fetcher fetch.Fetcher = fetch.NewHTTPFetcher(nil)
		if highlightBrowser || cfg.Browser.Enabled {
			bf := fetch.NewBrowserFetcher(fetch.BrowserOptions{
				Bin:          cfg.Browser.Bin,
				Headful:      cfg.Browser.Headful,
				WaitSelector: cfg.Browser.WaitSelector,
				Timeout:      cfg.Browser.Timeout,
			}, logger)
			defer bf.Close()
			fetcher = bf
		}

		var p *pipeline
		if highlightPrefetch {
			b, err := newBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()
			p = &pipeline{highlighter: h, fetcher: fetcher, backend: b}
		} else {
			p = &pipeline{highlighter: h, fetcher: fetcher}
		}
		p.styles = cfg.Highlight.InjectStyles

		if highlightStdout {
			doc, err := p.process(ctx, targets[0])
			if err != nil {
				return err
			}
			return doc.Render(os.Stdout)
		}

		reporter := progress.NewReporter()
		reporter.Start(len(targets))
		for _, t := range targets {
			doc, err := p.process(ctx, t)
			if err == nil {
				err = writePage(filepath.Join(cfg.Highlight.OutputDir, t.output), doc)
			}
			markers := 0
			if err != nil {
				logger.Warn("highlighting failed", zap.String("page", t.name), zap.Error(err))
			} else {
				markers = len(doc.Markers())
			}
			reporter.Page(t.name, markers, err)
		}
		sum := reporter.Finish()

		fmt.Fprintf(os.Stderr, "Highlighted %d page(s), %d with legal terms, into %s\n",
			sum.Written(), sum.Marked, cfg.Highlight.OutputDir)
		if sum.Failed > 0 {
			return fmt.Errorf("%d page(s) failed", sum.Failed)
		}
		return nil
	},
}

// target is one page to highlight.
type target struct {
	name     string // file path or URL as given
	url      string // set for remote pages
	markdown bool
	output   string // path under the output directory
}

// expandTargets turns arguments into pages: URLs stay as they are,
// directories are walked with the configured include/exclude globs, and
// anything else is a file or a glob pattern.
func expandTargets(args []string, hc config.HighlightConfig) ([]target, error) {
	var out []target
	seen := make(map[string]bool)
	add := func(t target) {
		if !seen[t.output] {
			seen[t.output] = true
			out = append(out, t)
		}
	}

	for _, arg := range args {
		if u, err := url.Parse(arg); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
			add(target{name: arg, url: arg, output: urlOutputPath(u)})
			continue
		}

		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			files, err := walker.Walk(walker.WalkerConfig{
				RootDir: arg,
				Include: hc.Include,
				Exclude: hc.Exclude,
			})
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				add(target{
					name:     f.Path,
					markdown: f.Kind == walker.KindMarkdown,
					output:   htmlName(f.RelPath),
				})
			}
		case err == nil:
			add(fileTarget(arg))
		default:
			matches, gerr := doublestar.FilepathGlob(arg)
			if gerr != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", arg, gerr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("%s: no such file, directory, or matching pattern", arg)
			}
			for _, m := range matches {
				if walker.DetectKind(m) != walker.KindUnknown {
					add(fileTarget(m))
				}
			}
		}
	}
	return out, nil
}

func fileTarget(path string) target {
	rel := filepath.Clean(path)
	if filepath.IsAbs(rel) {
		rel = filepath.Base(rel)
	}
	return target{
		name:     path,
		markdown: walker.DetectKind(path) == walker.KindMarkdown,
		output:   htmlName(filepath.ToSlash(rel)),
	}
}

// htmlName maps a relative page path to its output name. Markdown becomes
// HTML and parent references are dropped.
func htmlName(rel string) string {
	rel = strings.TrimLeft(rel, "/")
	for strings.HasPrefix(rel, "../") {
		rel = strings.TrimPrefix(rel, "../")
	}
	if walker.DetectKind(rel) == walker.KindMarkdown {
		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
	}
	return filepath.FromSlash(rel)
}

// urlOutputPath names the output for a remote page after its host and path.
func urlOutputPath(u *url.URL) string {
	p := strings.Trim(u.Path, "/")
	if p == "" || strings.HasSuffix(u.Path, "/") {
		p = strings.TrimLeft(p+"/index.html", "/")
	} else if walker.DetectKind(p) == walker.KindUnknown {
		p += ".html"
	}
	return filepath.Join(u.Hostname(), htmlName(p))
}

// pipeline reads, highlights, and optionally prefetches definitions for
// pages.
type pipeline struct {
	highlighter *highlight.Highlighter
	fetcher     fetch.Fetcher
	backend     *backend
	styles      bool
}

func (p *pipeline) process(ctx context.Context, t target) (*highlight.Document, error) {
	src, err := p.read(ctx, t)
	if err != nil {
		return nil, err
	}
	if t.markdown {
		rendered, err := highlight.FromMarkdown([]byte(src))
		if err != nil {
			return nil, err
		}
		src = string(rendered)
	}

	opts := []highlight.Option{highlight.WithLogger(logger.With(zap.String("page", t.name)))}
	if p.styles {
		opts = append(opts, highlight.WithStyles())
	}
	doc, err := highlight.ParseString(src, p.highlighter, opts...)
	if err != nil {
		return nil, err
	}
	if !doc.Scan() || p.backend == nil {
		return doc, nil
	}

	session := page.NewSession(doc, p.backend.channel, page.WithLogger(logger))
	resolved := make(map[string]bool)
	for _, m := range doc.Markers() {
		var term string
		doc.Do(func() { term = highlight.Attr(m, highlight.AttrTerm) })
		key := glossary.Normalize(term)
		if resolved[key] {
			continue
		}
		resolved[key] = true
		def := session.Definition(ctx, m)
		if def == page.MsgError || def == page.MsgUnavailable || def == tooltip.LoadingText {
			continue
		}
		// Glossary hits are answered without touching the marker.
		doc.Do(func() {
			if highlight.Attr(m, highlight.AttrDefinition) == "" {
				highlight.SetAttr(m, highlight.AttrDefinition, def)
			}
		})
	}
	copyDefinitions(doc)
	return doc, nil
}

func (p *pipeline) read(ctx context.Context, t target) (string, error) {
	if t.url != "" {
		return p.fetcher.Fetch(ctx, t.url)
	}
	data, err := os.ReadFile(t.name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// copyDefinitions gives every marker the definition resolved for the
// first marker of the same term.
func copyDefinitions(doc *highlight.Document) {
	markers := doc.Markers()
	doc.Do(func() {
		type resolved struct{ def, source string }
		byTerm := make(map[string]resolved)
		for _, m := range markers {
			key := glossary.Normalize(highlight.Attr(m, highlight.AttrTerm))
			if def := highlight.Attr(m, highlight.AttrDefinition); def != "" {
				byTerm[key] = resolved{def, highlight.Attr(m, highlight.AttrSource)}
			}
		}
		for _, m := range markers {
			key := glossary.Normalize(highlight.Attr(m, highlight.AttrTerm))
			if r, ok := byTerm[key]; ok && highlight.Attr(m, highlight.AttrDefinition) == "" {
				highlight.SetAttr(m, highlight.AttrDefinition, r.def)
				highlight.SetAttr(m, highlight.AttrSource, r.source)
			}
		}
	})
}

func writePage(path string, doc *highlight.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	highlightCmd.Flags().StringVarP(&highlightOut, "out", "o", "", "output directory (overrides highlight.output_dir)")
	highlightCmd.Flags().BoolVar(&highlightStdout, "stdout", false, "write the single highlighted page to stdout")
	highlightCmd.Flags().BoolVar(&highlightBrowser, "browser", false, "render remote pages in headless Chrome")
	highlightCmd.Flags().BoolVar(&highlightPrefetch, "prefetch", false, "resolve definitions and store them on the markers")
	rootCmd.AddCommand(highlightCmd)
}
