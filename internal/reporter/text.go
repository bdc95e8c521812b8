package reporter

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const separator = "------------------------------"

// TextReporter prints listings the way an operator reads them in a terminal.
type TextReporter struct {
	out io.Writer
}

func NewTextReporter(out io.Writer) *TextReporter {
	return &TextReporter{out: out}
}

func (t *TextReporter) Report(ctx context.Context, report Report) error {
	var b strings.Builder

	if report.Result.Containers == 0 {
		fmt.Fprintf(&b, "No job listings found with selector '%s'.\n", report.Result.Selector)
		b.WriteString("Try inspecting the page HTML to find the right selector.\n")
		_, err := io.WriteString(t.out, b.String())
		return err
	}

	fmt.Fprintf(&b, "Found %d job listings.\n", report.Result.Containers)
	for _, l := range report.Listings {
		fmt.Fprintf(&b, "Title: %s\n", l.Title)
		fmt.Fprintf(&b, "Link: %s\n", l.URL)
		fmt.Fprintf(&b, "Location: %s\n", l.Location)
		b.WriteString(separator + "\n")
	}

	if skipped := report.Skipped(); skipped > 0 || report.Filtered > 0 {
		fmt.Fprintf(&b, "Printed %d of %d listings (%d skipped, %d filtered out).\n",
			len(report.Listings), report.Result.Containers, skipped, report.Filtered)
	}

	_, err := io.WriteString(t.out, b.String())
	return err
}
