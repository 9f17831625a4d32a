// Package progress reports a highlight run page by page.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Reporter follows a batch of pages through highlighting.
type Reporter interface {
	Start(total int)
	// Page records one finished page: the markers it received, or the
	// error that stopped it.
	Page(name string, markers int, err error)
	Finish() Summary
}

// Summary tallies a finished run.
type Summary struct {
	Pages   int // pages attempted
	Failed  int
	Marked  int // pages with at least one marker
	Markers int
}

// Written is the number of pages that made it to the output directory.
func (s Summary) Written() int { return s.Pages - s.Failed }

func (s *Summary) add(markers int, err error) {
	s.Pages++
	if err != nil {
		s.Failed++
		return
	}
	s.Markers += markers
	if markers > 0 {
		s.Marked++
	}
}

// NewReporter returns a CIReporter under CI and a TerminalReporter
// otherwise. Both write to stderr so --stdout output stays clean.
func NewReporter() Reporter {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return &CIReporter{Out: os.Stderr}
	}
	return &TerminalReporter{Out: os.Stderr}
}

// TerminalReporter draws a bar that names the page just finished.
type TerminalReporter struct {
	Out     io.Writer
	bar     *progressbar.ProgressBar
	summary Summary
}

func (r *TerminalReporter) Start(total int) {
	r.summary = Summary{}
	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.Out),
		progressbar.OptionSetDescription("Highlighting pages"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *TerminalReporter) Page(name string, markers int, err error) {
	r.summary.add(markers, err)
	if r.bar == nil {
		return
	}
	r.bar.Describe(name)
	_ = r.bar.Add(1)
}

func (r *TerminalReporter) Finish() Summary {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
	return r.summary
}

// CIReporter prints one line per page, suitable for CI logs.
type CIReporter struct {
	Out     io.Writer
	total   int
	summary Summary
}

func (r *CIReporter) Start(total int) {
	r.total = total
	r.summary = Summary{}
	fmt.Fprintf(r.Out, "Highlighting %d page(s)\n", total)
}

func (r *CIReporter) Page(name string, markers int, err error) {
	r.summary.add(markers, err)
	if err != nil {
		fmt.Fprintf(r.Out, "[%d/%d] %s: failed: %v\n", r.summary.Pages, r.total, name, err)
		return
	}
	fmt.Fprintf(r.Out, "[%d/%d] %s: %d term(s)\n", r.summary.Pages, r.total, name, markers)
}

func (r *CIReporter) Finish() Summary {
	fmt.Fprintf(r.Out, "Highlighting complete: %d marked, %d failed\n", r.summary.Marked, r.summary.Failed)
	return r.summary
}
