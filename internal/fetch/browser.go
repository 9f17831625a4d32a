package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// BrowserOptions configures a BrowserFetcher.
type BrowserOptions struct {
	// Bin is the Chrome binary; empty lets the launcher find or download one.
	Bin string
	// Headful shows the browser window.
	Headful bool
	// WaitSelector, when set, is awaited after load before the HTML is read.
	WaitSelector string
	// Timeout bounds one fetch. Zero means 30 seconds.
	Timeout time.Duration
}

// BrowserFetcher renders pages in headless Chrome through go-rod so
// content built by scripts is present in the returned HTML. The browser
// is launched on first use and shared by later fetches.
type BrowserFetcher struct {
	opts   BrowserOptions
	logger *zap.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewBrowserFetcher creates a BrowserFetcher. A nil logger discards output.
func NewBrowserFetcher(opts BrowserOptions, logger *zap.Logger) *BrowserFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserFetcher{opts: opts, logger: logger}
}

func (f *BrowserFetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser != nil {
		return f.browser, nil
	}

	l := launcher.New().Headless(!f.opts.Headful)
	if f.opts.Bin != "" {
		l = l.Bin(f.opts.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	f.logger.Debug("browser launched", zap.String("control_url", controlURL))
	f.launcher, f.browser = l, browser
	return browser, nil
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	browser, err := f.connect()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("open %s: %w", url, err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load %s: %w", url, err)
	}
	if f.opts.WaitSelector != "" {
		if _, err := page.Element(f.opts.WaitSelector); err != nil {
			return "", fmt.Errorf("wait for %q on %s: %w", f.opts.WaitSelector, url, err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read html of %s: %w", url, err)
	}
	f.logger.Debug("page rendered", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Close shuts the browser down if it was launched.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.launcher.Cleanup()
	f.browser, f.launcher = nil, nil
	return err
}
